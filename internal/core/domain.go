package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlannedSpend Category = "PlannedSpend"
	ActualSpend  Category = "ActualSpend"
	Savings      Category = "Savings"
)

// RegionAll is the history filter value that matches every region.
const RegionAll = "All"

// DefaultRegions are the receiver region codes offered on the label form.
var DefaultRegions = []Region{
	"ADANA", "ANKARA", "ANTALYA", "BURSA", "ISTANBUL",
	"IZMIR", "KOCAELI", "KONYA", "SAMSUN", "TRABZON",
}

type (
	Category string

	Region string

	// Day is a civil calendar date without time zone.
	Day struct {
		Year  int
		Month time.Month
		Dom   int
	}

	// ExportRow is one line of the daily summary. Derived, never persisted.
	ExportRow struct {
		Date     string
		Category Category
		Amount   decimal.Decimal
		Note     string
	}

	// LabelDraft holds the label form while the operator edits it.
	LabelDraft struct {
		Date           string
		ReceiverRegion Region
		ReceiverName   string
		DispatchNote   string
		ProductName    string
		AssetNumber    string
	}

	// HistoryEntry records one committed print. Entries are never modified.
	HistoryEntry struct {
		LabelIdentifier string    `json:"labelIdentifier"`
		ReceiverRegion  Region    `json:"receiverRegion"`
		ReceiverName    string    `json:"receiverName"`
		DispatchNote    string    `json:"dispatchNote,omitempty"`
		ProductName     string    `json:"productName"`
		AssetNumber     string    `json:"assetNumber"`
		Date            string    `json:"date"`
		PrintedAt       time.Time `json:"printedAt"`
	}
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrEmptyDate   = errors.New("empty date")
)

// ParseDay parses an ISO date (YYYY-MM-DD) as a civil date.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, ErrEmptyDate
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return Day{Year: t.Year(), Month: t.Month(), Dom: t.Day()}, nil
}

// DayOf returns the civil date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Dom: d}
}

// IsZero reports whether the day was never set.
func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Dom == 0
}

func (d Day) time() time.Time {
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, time.UTC)
}

// ISO returns the YYYY-MM-DD form used in filenames and form values.
func (d Day) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format("2006-01-02")
}

// Label returns the Turkish locale day label (dd.mm.yyyy).
func (d Day) Label() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format("02.01.2006")
}

// Title returns the display name of an export category.
func (c Category) Title() string {
	switch c {
	case PlannedSpend:
		return "Planlanan Harcama"
	case ActualSpend:
		return "Gerçekleşen Harcama"
	case Savings:
		return "Tasarruf"
	default:
		return string(c)
	}
}

// NormalizeRegion trims and upper-cases a region code.
func NormalizeRegion(s string) Region {
	return Region(strings.ToUpper(strings.TrimSpace(s)))
}

// Trimmed returns a copy of the draft with surrounding whitespace removed.
func (d LabelDraft) Trimmed() LabelDraft {
	return LabelDraft{
		Date:           strings.TrimSpace(d.Date),
		ReceiverRegion: Region(strings.TrimSpace(string(d.ReceiverRegion))),
		ReceiverName:   strings.TrimSpace(d.ReceiverName),
		DispatchNote:   strings.TrimSpace(d.DispatchNote),
		ProductName:    strings.TrimSpace(d.ProductName),
		AssetNumber:    strings.TrimSpace(d.AssetNumber),
	}
}

// Entry builds the history record for a committed print of this draft.
func (d LabelDraft) Entry(identifier string, printedAt time.Time) HistoryEntry {
	t := d.Trimmed()
	return HistoryEntry{
		LabelIdentifier: identifier,
		ReceiverRegion:  t.ReceiverRegion,
		ReceiverName:    t.ReceiverName,
		DispatchNote:    t.DispatchNote,
		ProductName:     t.ProductName,
		AssetNumber:     t.AssetNumber,
		Date:            t.Date,
		PrintedAt:       printedAt.UTC(),
	}
}
