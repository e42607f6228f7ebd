package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// RecordWriter streams raw records as CSV rows.
type RecordWriter struct {
	cw          *csv.Writer
	metaKeys    []string
	wroteHeader bool
}

// NewRecordWriter writes records to w. metaKeys selects metadata columns.
func NewRecordWriter(w io.Writer, metaKeys []string) *RecordWriter {
	return &RecordWriter{cw: csv.NewWriter(w), metaKeys: metaKeys}
}

// Write appends one record, writing the header first if needed.
func (rw *RecordWriter) Write(rec nutrition.RawRecord) error {
	if !rw.wroteHeader {
		header := append([]string{"position", "source", "type", "value", "start_date"}, rw.metaKeys...)
		if err := rw.cw.Write(header); err != nil {
			return err
		}
		rw.wroteHeader = true
	}
	row := []string{strconv.Itoa(rec.Position), rec.Source, rec.Type, rec.Value, rec.StartDate}
	for _, k := range rw.metaKeys {
		row = append(row, rec.Metadata[k])
	}
	return rw.cw.Write(row)
}

// Flush writes buffered rows and reports any write error.
func (rw *RecordWriter) Flush() error {
	rw.cw.Flush()
	return rw.cw.Error()
}
