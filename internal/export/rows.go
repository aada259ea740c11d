// Package export builds the daily summary rows and serializes them into
// downloadable CSV and XLSX artifacts.
package export

import (
	"etiket/internal/core"

	"github.com/shopspring/decimal"
)

// Sample figures shown for every day. The workstation has no data source for
// real daily totals yet, so these stay fixed regardless of the date.
var (
	samplePlanned = decimal.RequireFromString("12500.00")
	sampleActual  = decimal.RequireFromString("11875.50")
	sampleSavings = samplePlanned.Sub(sampleActual)
)

// BuildRows returns the three summary rows for the given day, in the order
// planned spend, actual spend, savings.
func BuildRows(day core.Day) []core.ExportRow {
	label := day.Label()
	return []core.ExportRow{
		{Date: label, Category: core.PlannedSpend, Amount: samplePlanned, Note: "Günlük bütçe planı"},
		{Date: label, Category: core.ActualSpend, Amount: sampleActual, Note: "Onaylanan harcamalar"},
		{Date: label, Category: core.Savings, Amount: sampleSavings, Note: "Plan ile gerçekleşen farkı"},
	}
}
