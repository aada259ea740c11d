package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"etiket/internal/workstation"
)

// FilePresenter writes the print document to {Dir}/{identifier}.html for
// printing outside the browser.
type FilePresenter struct {
	Renderer *Renderer
	Dir      string

	// Path is the file written by the last successful Present.
	Path string
}

var _ workstation.PrintPresenter = (*FilePresenter)(nil)

func (p *FilePresenter) Present(_ context.Context, doc workstation.PrintDocument) error {
	html, err := p.Renderer.Document(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create print directory: %w", err)
	}
	path := filepath.Join(p.Dir, doc.Entry.LabelIdentifier+".html")
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("write print document: %w", err)
	}
	p.Path = path
	return nil
}
