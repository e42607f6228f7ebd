// Package report renders operation outputs as text, CSV, JSON, Markdown, or HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatCSV, FormatJSON, FormatMarkdown, FormatHTML}

// ParseFormat parses a format name. An empty name means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want text, csv, json, markdown, or html)", s))
}

// Extensions returns the file extensions accepted for f.
func (f Format) Extensions() []string {
	switch f {
	case FormatCSV:
		return []string{".csv"}
	case FormatJSON:
		return []string{".json"}
	case FormatMarkdown:
		return []string{".md", ".markdown"}
	case FormatHTML:
		return []string{".html", ".htm"}
	default:
		return []string{".txt"}
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Renderer writes reports. The zero value uses the default CSV column names.
type Renderer struct {
	Fields nutrition.OutputFields
}

// New returns a renderer with the given CSV column names.
func New(fields nutrition.OutputFields) *Renderer {
	return &Renderer{Fields: fields}
}

func (r *Renderer) field(k nutrition.NutrientKind) string {
	if r.Fields[k] != "" {
		return r.Fields[k]
	}
	return nutrition.DefaultOutputFields[k]
}

// document is implemented by every report kind.
type document interface {
	text(w io.Writer) error
	csv(w io.Writer) error
	markdown(w io.Writer) error
	title() string
}

func (r *Renderer) render(w io.Writer, f Format, doc document, v any) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, v)
	case FormatCSV:
		return doc.csv(w)
	case FormatMarkdown:
		return doc.markdown(w)
	case FormatHTML:
		var md bytes.Buffer
		if err := doc.markdown(&md); err != nil {
			return err
		}
		return writeHTMLPage(w, doc.title(), md.Bytes())
	default:
		return doc.text(w)
	}
}

// Render renders into a byte slice.
func Render(fn func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cleanName replaces commas so names stay on one column in the text layouts.
func cleanName(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

// mdEscape escapes characters that would break a Markdown table cell.
func mdEscape(s string) string {
	r := strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")
	return r.Replace(s)
}
