// Package google exports ledger records and monthly overviews to a Google
// Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gagyebu/internal/core"
	ports "gagyebu/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultRecordsSheet  = "가계부"
	DefaultOverviewSheet = "월별요약"
)

type Config struct {
	SpreadsheetID   string
	RecordsSheet    string
	OverviewSheet   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsBase   string
	overviewBase  string
}

// valueInputOption stores cell values as given, so memo text is never
// parsed as a formula.
const valueInputOption = "RAW"

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client authenticated with service account
// credentials. CredentialsJSON wins over CredentialsFile; with neither,
// GOOGLE_APPLICATION_CREDENTIALS is consulted.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	records := strings.TrimSpace(cfg.RecordsSheet)
	if records == "" {
		records = DefaultRecordsSheet
	}
	overview := strings.TrimSpace(cfg.OverviewSheet)
	if overview == "" {
		overview = DefaultOverviewSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		recordsBase:   records,
		overviewBase:  overview,
	}
}

func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline := strings.TrimSpace(cfg.CredentialsJSON); inline != "" {
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set credentials json or file, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
	return data, nil
}

// ExportRecords appends records to the "<year> <records sheet>" tab, writing
// the header row first when the tab is empty.
func (c *Client) ExportRecords(ctx context.Context, year int, records []core.Record) (string, error) {
	sheet := yearPrefixedName(c.recordsBase, year)
	return c.appendRows(ctx, sheet, recordHeader, recordRows(records))
}

// ExportOverview appends one block of rows describing a month.
func (c *Client) ExportOverview(ctx context.Context, ov core.MonthOverview) (string, error) {
	if ov.Month < 1 || ov.Month > 12 {
		return "", fmt.Errorf("invalid month: %d", ov.Month)
	}
	sheet := yearPrefixedName(c.overviewBase, ov.Year)
	return c.appendRows(ctx, sheet, overviewHeader, overviewRows(ov))
}

func (c *Client) appendRows(ctx context.Context, sheet string, header []any, rows [][]any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return "", nil
	}

	headRange := fmt.Sprintf("%s!A1:%s1", sheet, lastColumn(len(header)))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", headRange, err)
	}
	if !hasHeader(resp.Values, header) {
		rows = append([][]any{header}, rows...)
	}

	rng := fmt.Sprintf("%s!A:%s", sheet, lastColumn(len(header)))
	out, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	updated := ""
	if out.Updates != nil {
		updated = out.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Rows exported to Google Sheets",
		"sheet", sheet,
		"rows", len(rows),
		"range", updated)
	return updated, nil
}
