package report

import (
	"fmt"

	"github.com/ignite/adlens/internal/domain"
)

// Renderer turns report data into the bytes of one format.
type Renderer interface {
	Format() domain.ReportFormat
	Render(d Data) ([]byte, error)
}

// Renderers indexes renderers by format.
type Renderers map[domain.ReportFormat]Renderer

// NewRenderers builds a registry from rs; later entries win.
func NewRenderers(rs ...Renderer) Renderers {
	m := make(Renderers, len(rs))
	for _, r := range rs {
		m[r.Format()] = r
	}
	return m
}

// DefaultRenderers returns the HTML, CSV, XLSX and PDF renderers.
func DefaultRenderers() (Renderers, error) {
	html, err := NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	return NewRenderers(html, CSVRenderer{}, XLSXRenderer{}, PDFRenderer{}), nil
}

// Get returns the renderer for f.
func (m Renderers) Get(f domain.ReportFormat) (Renderer, error) {
	r, ok := m[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return r, nil
}
