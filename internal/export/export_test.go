package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"etiket/internal/core"

	"github.com/xuri/excelize/v2"
)

func mustDay(t *testing.T, s string) core.Day {
	t.Helper()
	d, err := core.ParseDay(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestBuildRowsShape(t *testing.T) {
	for _, s := range []string{"2024-01-01", "2024-03-05", "2024-12-31", "2000-02-29"} {
		day := mustDay(t, s)
		rows := BuildRows(day)
		if len(rows) != 3 {
			t.Fatalf("%s: expected 3 rows, got %d", s, len(rows))
		}
		want := []core.Category{core.PlannedSpend, core.ActualSpend, core.Savings}
		for i, r := range rows {
			if r.Date != day.Label() {
				t.Fatalf("%s: row %d date %q, want %q", s, i, r.Date, day.Label())
			}
			if r.Category != want[i] {
				t.Fatalf("%s: row %d category %s, want %s", s, i, r.Category, want[i])
			}
		}
	}
}

func TestBuildRowsDeterministic(t *testing.T) {
	day := mustDay(t, "2024-03-05")
	a, b := BuildRows(day), BuildRows(day)
	for i := range a {
		if a[i].Date != b[i].Date || !a[i].Amount.Equal(b[i].Amount) || a[i].Note != b[i].Note {
			t.Fatalf("row %d differs between calls", i)
		}
	}
	if !a[0].Amount.Sub(a[1].Amount).Equal(a[2].Amount) {
		t.Fatalf("savings should be planned minus actual")
	}
}

func TestEncodeCSV(t *testing.T) {
	day := mustDay(t, "2024-03-05")
	art, err := Encode(BuildRows(day), FormatCSV, day, "gunluk-ozet")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if art.Filename != "gunluk-ozet-2024-03-05.csv" {
		t.Fatalf("unexpected filename %q", art.Filename)
	}
	if art.MIMEType != MIMECSV {
		t.Fatalf("unexpected mime %q", art.MIMEType)
	}

	lines := strings.Split(strings.TrimRight(string(art.Body), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 1 header + 3 rows, got %d lines:\n%s", len(lines), art.Body)
	}
	for i, l := range lines {
		if n := len(strings.Split(l, ";")); n != 4 {
			t.Fatalf("line %d has %d fields: %q", i, n, l)
		}
	}
	if lines[0] != "Tarih;Kategori;Tutar;Not" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "05.03.2024;Planlanan Harcama;12500.00;") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestEncodeXLSX(t *testing.T) {
	day := mustDay(t, "2024-03-05")
	art, err := Encode(BuildRows(day), FormatXLSX, day, "gunluk-ozet")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if art.Filename != "gunluk-ozet-2024-03-05.xlsx" || art.MIMEType != MIMEXLSX {
		t.Fatalf("unexpected artifact %q %q", art.Filename, art.MIMEType)
	}

	f, err := excelize.OpenReader(bytes.NewReader(art.Body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("expected single sheet %q, got %v", SheetName, sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Tarih" || rows[3][1] != "Tasarruf" || rows[1][0] != "05.03.2024" {
		t.Fatalf("unexpected content: %v", rows)
	}
}

func TestEncodeErrors(t *testing.T) {
	day := mustDay(t, "2024-03-05")
	if _, err := Encode(BuildRows(day), Format("pdf"), day, "x"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Encode(nil, FormatCSV, day, "x"); !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, " XLSX ": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v", in, got, err)
		}
	}
	if _, err := ParseFormat("ods"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
