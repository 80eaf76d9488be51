package export

import (
	"fmt"
	"strings"
)

// Format identifies one of the five supported export document formats.
// A Format value is chosen once per export invocation and held for that
// invocation's background work; concurrent exports never share one.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// AllFormats returns the closed set of supported formats.
func AllFormats() []Format {
	return []Format{FormatCSV, FormatText, FormatHTML, FormatMarkdown, FormatJSON}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatText, FormatHTML, FormatMarkdown, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected one of: csv, txt, html, md, json)", s)
}

// Ext returns the file extension for the format, without a leading dot.
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME content descriptor for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatText:
		return "text/plain"
	case FormatHTML:
		return "text/html"
	case FormatMarkdown:
		return "text/markdown"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
