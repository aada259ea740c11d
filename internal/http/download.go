package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"etiket/internal/export"
	"etiket/internal/workstation"
)

// httpDownloader delivers an export as an attachment on the response.
type httpDownloader struct {
	w       http.ResponseWriter
	started bool
}

var _ workstation.Downloader = (*httpDownloader)(nil)

func (d *httpDownloader) Deliver(ctx context.Context, a export.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h := d.w.Header()
	h.Set("Content-Type", a.MIMEType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
	h.Set("Content-Length", strconv.Itoa(len(a.Body)))

	d.started = true
	d.w.WriteHeader(http.StatusOK)
	if _, err := d.w.Write(a.Body); err != nil {
		return fmt.Errorf("write %s: %w", a.Filename, err)
	}
	return nil
}
