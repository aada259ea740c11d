package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"etiket/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	MIMECSV  = "text/csv;charset=utf-8"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// SheetName is the single worksheet of the XLSX export.
	SheetName = "Günlük Özet"
)

// Header is the first line of every export.
var Header = []string{"Tarih", "Kategori", "Tutar", "Not"}

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNoRows            = errors.New("no rows to export")
)

type Format string

// Artifact is a generated file ready to be delivered to the operator.
type Artifact struct {
	Filename string
	MIMEType string
	Body     []byte
}

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Filename returns "{prefix}-{YYYY-MM-DD}.{ext}".
func Filename(prefix string, day core.Day, format Format) string {
	return fmt.Sprintf("%s-%s.%s", prefix, day.ISO(), format)
}

// Encode serializes rows in the requested format.
func Encode(rows []core.ExportRow, format Format, day core.Day, prefix string) (Artifact, error) {
	if len(rows) == 0 {
		return Artifact{}, ErrNoRows
	}

	var (
		body []byte
		mime string
		err  error
	)
	switch format {
	case FormatCSV:
		body, err = encodeCSV(rows)
		mime = MIMECSV
	case FormatXLSX:
		body, err = encodeXLSX(rows)
		mime = MIMEXLSX
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("encode %s: %w", format, err)
	}

	return Artifact{
		Filename: Filename(prefix, day, format),
		MIMEType: mime,
		Body:     body,
	}, nil
}

func encodeCSV(rows []core.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Date, r.Category.Title(), r.Amount.StringFixed(2), r.Note}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(rows []core.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{r.Date, r.Category.Title(), r.Amount.InexactFloat64(), r.Note}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	// #,##0.00
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(3, len(rows)+1)
	if err := f.SetCellStyle(SheetName, "C2", last, amountStyle); err != nil {
		return nil, fmt.Errorf("apply amount style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "D", 22); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
