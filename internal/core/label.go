package core

import (
	"fmt"
	"strings"
)

// Field identifies a label form field.
type Field string

const (
	FieldReceiverName   Field = "receiverName"
	FieldReceiverRegion Field = "receiverRegion"
	FieldProductName    Field = "productName"
	FieldAssetNumber    Field = "assetNumber"
	FieldDate           Field = "date"
	FieldDispatchNote   Field = "dispatchNote"
)

var fieldLabels = map[Field]string{
	FieldReceiverName:   "Alıcı Adı",
	FieldReceiverRegion: "Alıcı Bölgesi",
	FieldProductName:    "Ürün Adı",
	FieldAssetNumber:    "Demirbaş Numarası",
	FieldDate:           "Tarih",
	FieldDispatchNote:   "Sevk Notu",
}

// Label returns the operator-facing name of the field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// MissingFieldsError lists every required field left empty on a label draft
// in Fields, and every field holding a value outside its allowed set in
// Invalid.
type MissingFieldsError struct {
	Fields  []Field
	Invalid []Field
}

func (e *MissingFieldsError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "Lütfen zorunlu alanları doldurun: "+joinLabels(e.Fields))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Geçersiz değer: "+joinLabels(e.Invalid))
	}
	return strings.Join(parts, "; ")
}

func joinLabels(fields []Field) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label()
	}
	return strings.Join(labels, ", ")
}

// Validate checks the required fields of the draft. DispatchNote is optional.
func (d LabelDraft) Validate() error {
	return d.ValidateRegions(nil)
}

// ValidateRegions is Validate plus a check that the receiver region is one
// of regions. An empty regions list accepts any region.
func (d LabelDraft) ValidateRegions(regions []string) error {
	t := d.Trimmed()
	required := []struct {
		field Field
		value string
	}{
		{FieldReceiverName, t.ReceiverName},
		{FieldReceiverRegion, string(t.ReceiverRegion)},
		{FieldProductName, t.ProductName},
		{FieldAssetNumber, t.AssetNumber},
		{FieldDate, t.Date},
	}

	var missing []Field
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}

	var invalid []Field
	if t.ReceiverRegion != "" && len(regions) > 0 && !regionIn(t.ReceiverRegion, regions) {
		invalid = append(invalid, FieldReceiverRegion)
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return &MissingFieldsError{Fields: missing, Invalid: invalid}
	}
	return nil
}

func regionIn(r Region, regions []string) bool {
	for _, allowed := range regions {
		if NormalizeRegion(allowed) == NormalizeRegion(string(r)) {
			return true
		}
	}
	return false
}

// LabelIdentifier joins the date without separators and the zero-padded sequence,
// e.g. ("2024-03-05", 12) -> "20240305-012".
func LabelIdentifier(date string, sequence int) string {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '-', '/', '.', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(date))
	return fmt.Sprintf("%s-%03d", compact, sequence)
}
