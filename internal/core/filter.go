package core

import "strings"

// FilterHistory returns the entries matching both the region filter and the
// search term. Matching is a case-insensitive substring test over the
// receiver, region, product, asset, note and identifier fields. The input
// order is preserved and the input slice is never modified.
func FilterHistory(history []HistoryEntry, searchTerm, regionFilter string) []HistoryEntry {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	region := strings.TrimSpace(regionFilter)
	anyRegion := region == "" || region == RegionAll

	out := make([]HistoryEntry, 0, len(history))
	for _, e := range history {
		if !anyRegion && string(e.ReceiverRegion) != region {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(e.haystack()), term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (e HistoryEntry) haystack() string {
	parts := make([]string, 0, 6)
	for _, v := range []string{
		e.ReceiverName,
		string(e.ReceiverRegion),
		e.ProductName,
		e.AssetNumber,
		e.DispatchNote,
		e.LabelIdentifier,
	} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
