// Package export writes session records as CSV or NDJSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// Format is an export encoding.
type Format string

const (
	CSV    Format = "csv"
	NDJSON Format = "ndjson"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Header is the CSV column order.
var Header = []string{"title", "source_url", "snippet", "status", "selected"}

// ParseFormat maps user input to a Format. Empty input means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "ndjson", "jsonl":
		return NDJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == NDJSON {
		return "application/x-ndjson"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes records to w.
func Write(w io.Writer, f Format, records []domain.ResultRecord) error {
	switch f {
	case CSV:
		return writeCSV(w, records)
	case NDJSON:
		return writeNDJSON(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func writeCSV(w io.Writer, records []domain.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Title, r.SourceURL, r.Snippet, r.Status, strconv.FormatBool(r.Selected)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeNDJSON(w io.Writer, records []domain.ResultRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
