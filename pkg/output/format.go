// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/format"
	"github.com/Martingim-10/retirex/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Document is the machine-readable shape of a projection used by the JSON
// and YAML writers.
type Document struct {
	Method              string             `json:"method" yaml:"method"`
	Currency            string             `json:"currency" yaml:"currency"`
	Months              int                `json:"months" yaml:"months"`
	MonthlyContribution float64            `json:"monthly_contribution" yaml:"monthly_contribution"`
	PurePremium         *float64           `json:"pure_premium,omitempty" yaml:"pure_premium,omitempty"`
	Gender              string             `json:"gender,omitempty" yaml:"gender,omitempty"`
	Scenarios           []ScenarioDocument `json:"scenarios" yaml:"scenarios"`
}

// ScenarioDocument is one scenario within a Document.
type ScenarioDocument struct {
	Name        string  `json:"name" yaml:"name"`
	AnnualRate  float64 `json:"annual_rate" yaml:"annual_rate"`
	MonthlyRate float64 `json:"monthly_rate" yaml:"monthly_rate"`
	Capital     int64   `json:"capital" yaml:"capital"`
}

// NewDocument converts a result into its serializable form.
func NewDocument(result projection.Result) Document {
	doc := Document{
		Method:              string(result.Method),
		Currency:            string(result.Currency),
		Months:              result.Months,
		MonthlyContribution: result.Contribution,
		Gender:              result.Gender,
	}
	if result.Method == projection.MethodActuarial {
		premium := mathutil.Round(result.PurePremium)
		doc.PurePremium = &premium
	}
	for _, sr := range result.Scenarios() {
		doc.Scenarios = append(doc.Scenarios, ScenarioDocument{
			Name:        sr.Name,
			AnnualRate:  sr.AnnualRate,
			MonthlyRate: sr.MonthlyRate,
			Capital:     sr.Capital,
		})
	}
	return doc
}

// Write renders result in the named output format.
func Write(w io.Writer, outputFormat string, result projection.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result projection.Result) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "--- Projection (%s, %d months) ---\n", result.Method, result.Months); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "Monthly contribution: %s\n", format.Currency(result.Contribution)); err != nil {
		return err
	}
	if result.Method == projection.MethodActuarial {
		if _, err := p.Fprintf(w, "Pure premium:         %s\n", format.Currency(result.PurePremium)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%-26s | %-11s | %s\n", "Scenario", "Annual rate", "Capital"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-26s | %-11s | %s\n", "________", "___________", "_______"); err != nil {
		return err
	}
	for _, sr := range result.Scenarios() {
		if _, err := p.Fprintf(w, "%-26s | %-11s | %d\n", sr.Name, format.Percent(sr.AnnualRate), sr.Capital); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs one row per scenario in comma-separated value format.
func CsvFormat(w io.Writer, result projection.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "method", "months", "annual_rate", "monthly_rate", "capital"}); err != nil {
		return err
	}
	for _, sr := range result.Scenarios() {
		record := []string{
			sr.Name,
			string(result.Method),
			strconv.Itoa(result.Months),
			strconv.FormatFloat(sr.AnnualRate, 'f', -1, 64),
			strconv.FormatFloat(sr.MonthlyRate, 'f', -1, 64),
			strconv.FormatInt(sr.Capital, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV rendering of result.
func CsvString(result projection.Result) (string, error) {
	var buf strings.Builder
	if err := CsvFormat(&buf, result); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// JSONFormat outputs an indented JSON Document.
func JSONFormat(w io.Writer, result projection.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(result))
}

// YAMLFormat outputs a YAML Document.
func YAMLFormat(w io.Writer, result projection.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(result)); err != nil {
		return err
	}
	return enc.Close()
}
