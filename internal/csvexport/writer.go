package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lawnorm/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row, one row per section.
var columns = []string{
	"Document ID",
	"State Code",
	"Place Name",
	"Document Type",
	"Strategy",
	"Section Ordinal",
	"Section ID",
	"Section Number",
	"Section Title",
	"Section Text",
	"Section Refs",
	"Created At",
}

// Writer wraps csv.Writer for exporting normalized documents as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteDocument writes one row per section of doc, in section order.
func (w *Writer) WriteDocument(doc *domain.NormalizedDocument) error {
	for i := range doc.Sections {
		if err := w.csv.Write(sectionToRow(doc, i)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func sectionToRow(doc *domain.NormalizedDocument, i int) []string {
	s := &doc.Sections[i]
	row := make([]string, len(columns))

	row[0] = doc.DocumentID
	row[1] = doc.Jurisdiction.StateCode
	row[2] = doc.Jurisdiction.PlaceName
	row[3] = string(doc.DocumentType)
	row[4] = string(doc.Strategy)
	row[5] = strconv.Itoa(i + 1)
	row[6] = s.SectionID
	row[7] = deref(s.SectionNum)
	row[8] = deref(s.SectionTitle)
	row[9] = s.SectionText
	row[10] = strings.Join(s.SectionRefs, ";")
	row[11] = formatTime(doc.CreatedAt)

	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a group name for use as a file name.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "unknown"
	}
	return s
}

// BuildFilename returns {sanitized_group}_{YYYY-MM-DD}.{ext}.
func BuildFilename(group, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(group), now.Format("2006-01-02"), ext)
}
