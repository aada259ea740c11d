package google

import (
	"fmt"
	"strings"
	"time"

	"etiket/internal/core"
)

// parseLabelRows converts a values matrix (as returned by the Sheets API)
// into history entries. Rows without an identifier and a leading header row
// are skipped; unparsable timestamps leave PrintedAt zero.
func parseLabelRows(values [][]interface{}) []core.HistoryEntry {
	out := make([]core.HistoryEntry, 0, len(values))
	for i, raw := range values {
		row := toStrings(raw)
		id := safeGet(row, 0)
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "Etiket No") {
			continue
		}
		e := core.HistoryEntry{
			LabelIdentifier: id,
			Date:            safeGet(row, 1),
			ReceiverRegion:  core.Region(safeGet(row, 2)),
			ReceiverName:    safeGet(row, 3),
			ProductName:     safeGet(row, 4),
			AssetNumber:     safeGet(row, 5),
			DispatchNote:    safeGet(row, 6),
		}
		if ts, err := time.Parse(time.RFC3339, safeGet(row, 7)); err == nil {
			e.PrintedAt = ts
		}
		out = append(out, e)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
