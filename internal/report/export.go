package report

import (
	"context"
	"fmt"
	"strings"

	"statcalc/domain/core"
	"statcalc/internal/artifacts"
)

// Format selects the exported file type
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts md, markdown and html
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: report format %q", core.ErrInvalidInput, s)
}

// Exporter writes rendered reports to a blob store
type Exporter struct {
	blobs artifacts.BlobStore
}

func NewExporter(blobs artifacts.BlobStore) *Exporter {
	return &Exporter{blobs: blobs}
}

// Render converts markdown to the requested format
func Render(md string, format Format) []byte {
	if format == FormatHTML {
		return ToHTML(md)
	}
	return []byte(md)
}

// Export stores the report under reports/<name>.<format> and returns the key
func (e *Exporter) Export(ctx context.Context, name, md string, format Format) (string, error) {
	key := fmt.Sprintf("reports/%s.%s", name, format)
	if err := e.blobs.StoreBlob(ctx, key, Render(md, format)); err != nil {
		return "", fmt.Errorf("export %s: %w", key, err)
	}
	return key, nil
}
