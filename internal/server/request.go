package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Martingim-10/retirex/internal/projection"
)

// Accepted JSON keys per field. The Spanish names are what the /cotizar web
// form posts.
var (
	currentAgeKeys    = []string{"current_age", "edad_actual"}
	retirementAgeKeys = []string{"retirement_age", "edad_retiro"}
	contributionKeys  = []string{"monthly_contribution", "aporte_mensual"}
	currencyKeys      = []string{"currency", "moneda"}
	genderKeys        = []string{"gender", "genero"}
)

// decodeProjectionRequest reads a JSON object into a projection.Request.
// Numbers may be JSON numbers or numeric strings. Missing numbers stay zero
// and are reported by the engine.
func decodeProjectionRequest(body io.Reader) (projection.Request, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return projection.Request{}, err
	}

	var (
		req projection.Request
		err error
	)
	if req.CurrentAge, err = wholeField(fields, "current_age", currentAgeKeys); err != nil {
		return projection.Request{}, err
	}
	if req.RetirementAge, err = wholeField(fields, "retirement_age", retirementAgeKeys); err != nil {
		return projection.Request{}, err
	}
	if req.MonthlyContribution, _, err = numberField(fields, "monthly_contribution", contributionKeys); err != nil {
		return projection.Request{}, err
	}
	if req.Currency, err = stringField(fields, "currency", currencyKeys); err != nil {
		return projection.Request{}, err
	}
	if req.Gender, err = stringField(fields, "gender", genderKeys); err != nil {
		return projection.Request{}, err
	}
	return req, nil
}

func lookupField(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func numberField(fields map[string]json.RawMessage, name string, keys []string) (float64, bool, error) {
	raw, ok := lookupField(fields, keys)
	if !ok {
		return 0, false, nil
	}

	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, &projection.ValidationError{Field: name, Message: "must be a number", Err: err}
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, false, nil
		}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, &projection.ValidationError{Field: name, Message: fmt.Sprintf("must be a number, got %s", string(raw))}
	}
	return value, true, nil
}

func wholeField(fields map[string]json.RawMessage, name string, keys []string) (int, error) {
	value, ok, err := numberField(fields, name, keys)
	if err != nil || !ok {
		return 0, err
	}
	if value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
		return 0, &projection.ValidationError{Field: name, Message: fmt.Sprintf("must be a whole number of years, got %v", value)}
	}
	return int(value), nil
}

func stringField(fields map[string]json.RawMessage, name string, keys []string) (string, error) {
	raw, ok := lookupField(fields, keys)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &projection.ValidationError{Field: name, Message: "must be a string", Err: err}
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
