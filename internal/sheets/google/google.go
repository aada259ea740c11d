package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"etiket/internal/core"
	ports "etiket/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	labelsSheet   string
}

// Ensure interface conformance
var _ ports.LabelMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_LABELS_SHEET_NAME (default "Etiketler").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_LABELS_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Etiketler"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		labelsSheet:   sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", serviceAccountFile, "size", len(credentialsJSON))
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendLabel implements ports.LabelWriter
func (c *Client) AppendLabel(ctx context.Context, eventID string, e core.HistoryEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.LabelIdentifier == "" {
		return "", errors.New("append label: empty identifier")
	}

	rng := fmt.Sprintf("%s!A:I", c.labelsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{labelRow(eventID, e)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append label to sheet %s: %w", c.labelsSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// HasEvent implements ports.LabelReader
func (c *Client) HasEvent(ctx context.Context, eventID string) (bool, error) {
	values, err := c.read(ctx, "I:I")
	if err != nil {
		return false, err
	}
	for _, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == eventID {
			return true, nil
		}
	}
	return false, nil
}

// ListLabels implements ports.LabelReader
func (c *Client) ListLabels(ctx context.Context) ([]core.HistoryEntry, error) {
	values, err := c.read(ctx, "A:I")
	if err != nil {
		return nil, err
	}
	return parseLabelRows(values), nil
}

func (c *Client) read(ctx context.Context, cols string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", c.labelsSheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// labelRow lays out one label as columns A..I.
func labelRow(eventID string, e core.HistoryEntry) []any {
	return []any{
		e.LabelIdentifier,
		e.Date,
		string(e.ReceiverRegion),
		e.ReceiverName,
		e.ProductName,
		e.AssetNumber,
		e.DispatchNote,
		e.PrintedAt.UTC().Format(time.RFC3339),
		eventID,
	}
}
