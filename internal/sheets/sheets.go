// Package sheets connects retirex to a Google spreadsheet that holds the
// keyword/answer table and receives chat and quote log rows.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Martingim-10/retirex/internal/chat"
	"github.com/Martingim-10/retirex/internal/config"
	"github.com/Martingim-10/retirex/internal/projection"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// ErrNotConfigured is returned by NewClient when no spreadsheet ID is set.
var ErrNotConfigured = errors.New("spreadsheet is not configured")

// Client reads and appends rows of a single spreadsheet.
type Client struct {
	service           *gsheets.Service
	spreadsheetID     string
	keywordRange      string
	conversationRange string
	quoteRange        string
	logger            *zap.Logger
	now               func() time.Time
}

// NewClient builds a Sheets API client from configuration. Extra options are
// appended after the configured ones.
func NewClient(ctx context.Context, conf config.SheetsConfig, logger *zap.Logger, extra ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !conf.Enabled() {
		return nil, ErrNotConfigured
	}

	var opts []option.ClientOption
	switch {
	case conf.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(conf.CredentialsFile))
	case conf.APIKey != "":
		opts = append(opts, option.WithAPIKey(conf.APIKey))
	}
	if conf.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(conf.Endpoint))
	}
	opts = append(opts, extra...)

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.Debug("sheets client created",
		zap.String("op", "sheets.NewClient"),
		zap.String("spreadsheet_id", conf.SpreadsheetID),
	)

	return &Client{
		service:           service,
		spreadsheetID:     conf.SpreadsheetID,
		keywordRange:      conf.KeywordRange,
		conversationRange: conf.ConversationRange,
		quoteRange:        conf.QuoteRange,
		logger:            logger,
		now:               time.Now,
	}, nil
}

// Lookup scans the keyword range and returns column B of the first row whose
// normalized column A equals keyword.
func (c *Client) Lookup(ctx context.Context, keyword string) (string, bool, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.keywordRange).Context(ctx).Do()
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", c.keywordRange, err)
	}

	for _, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		if chat.NormalizeKeyword(cellString(row[0])) == keyword {
			return cellString(row[1]), true, nil
		}
	}
	return "", false, nil
}

// Record appends a chat exchange as time, question, answer, source.
func (c *Client) Record(ctx context.Context, exchange chat.Exchange) error {
	return c.appendRow(ctx, "sheets.Record", c.conversationRange, []interface{}{
		exchange.Time.UTC().Format(time.RFC3339),
		exchange.Question,
		exchange.Answer,
		exchange.Source,
	})
}

// SetClock replaces the clock used to timestamp quote rows.
func (c *Client) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// RecordQuote appends one successful projection.
func (c *Client) RecordQuote(ctx context.Context, req projection.Request, result projection.Result) error {
	var usd interface{} = ""
	if result.RealisticUSD != nil {
		usd = result.RealisticUSD.Capital
	}
	return c.appendRow(ctx, "sheets.RecordQuote", c.quoteRange, []interface{}{
		c.now().UTC().Format(time.RFC3339),
		req.CurrentAge,
		req.RetirementAge,
		req.MonthlyContribution,
		string(result.Currency),
		result.Official.Capital,
		result.RealisticLocal.Capital,
		usd,
	})
}

func (c *Client) appendRow(ctx context.Context, op, rng string, row []interface{}) error {
	values := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	c.logger.Debug("row appended", zap.String("op", op), zap.String("range", rng))
	return nil
}

func cellString(cell interface{}) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(cell))
}
