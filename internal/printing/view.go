// Package printing turns a label into the self-contained document the
// operator prints from, and hands it to the browser as a one-shot window.
package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"etiket/internal/config"
	"etiket/internal/core"
	"etiket/internal/workstation"
)

// LabelView is the data behind the label markup, shared by the live preview
// and the print document.
type LabelView struct {
	Title          string
	Identifier     string
	DateLabel      string
	ReceiverName   string
	ReceiverRegion string
	ProductName    string
	AssetNumber    string
	DispatchNote   string
}

// DocumentView is the data of the print document template.
type DocumentView struct {
	Label    LabelView
	WidthMM  float64
	HeightMM float64
}

// Renderer executes the label templates with the configured profile.
type Renderer struct {
	tmpl    *template.Template
	profile config.LabelProfile
}

func NewRenderer(tmpl *template.Template, profile config.LabelProfile) *Renderer {
	return &Renderer{tmpl: tmpl, profile: profile}
}

func (r *Renderer) Profile() config.LabelProfile { return r.profile }

// DraftView builds the preview of a draft that is not printed yet.
func (r *Renderer) DraftView(d core.LabelDraft, identifier string) LabelView {
	t := d.Trimmed()
	dateLabel := t.Date
	if day, err := core.ParseDay(t.Date); err == nil {
		dateLabel = day.Label()
	}
	return LabelView{
		Title:          r.profile.Title,
		Identifier:     identifier,
		DateLabel:      dateLabel,
		ReceiverName:   t.ReceiverName,
		ReceiverRegion: string(t.ReceiverRegion),
		ProductName:    t.ProductName,
		AssetNumber:    t.AssetNumber,
		DispatchNote:   t.DispatchNote,
	}
}

// DocumentView builds the view of a committed label.
func (r *Renderer) DocumentView(doc workstation.PrintDocument) DocumentView {
	e := doc.Entry
	return DocumentView{
		Label: LabelView{
			Title:          r.profile.Title,
			Identifier:     e.LabelIdentifier,
			DateLabel:      doc.DateLabel,
			ReceiverName:   e.ReceiverName,
			ReceiverRegion: string(e.ReceiverRegion),
			ProductName:    e.ProductName,
			AssetNumber:    e.AssetNumber,
			DispatchNote:   e.DispatchNote,
		},
		WidthMM:  r.profile.WidthMM,
		HeightMM: r.profile.HeightMM,
	}
}

// Preview writes the label_preview fragment.
func (r *Renderer) Preview(w io.Writer, v LabelView) error {
	if r.tmpl == nil {
		return fmt.Errorf("render label preview: templates not loaded")
	}
	return r.tmpl.ExecuteTemplate(w, "label_preview.html", v)
}

// Document renders the complete print document for doc.
func (r *Renderer) Document(doc workstation.PrintDocument) ([]byte, error) {
	if r.tmpl == nil {
		return nil, fmt.Errorf("render print document: templates not loaded")
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "print.html", r.DocumentView(doc)); err != nil {
		return nil, fmt.Errorf("render print document %s: %w", doc.Entry.LabelIdentifier, err)
	}
	return buf.Bytes(), nil
}
