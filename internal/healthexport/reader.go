// Package healthexport streams Record elements out of an Apple Health export.
package healthexport

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	merrors "github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// exportEntry is the document name inside an export archive.
const exportEntry = "export.xml"

var zipMagic = []byte("PK\x03\x04")

// Reader yields records in document order, including records nested inside
// Correlation elements. It is not safe for concurrent use.
type Reader struct {
	dec    *xml.Decoder
	pos    int
	closer io.Closer
}

type xmlRecord struct {
	Type      string         `xml:"type,attr"`
	Source    string         `xml:"sourceName,attr"`
	Value     string         `xml:"value,attr"`
	StartDate string         `xml:"startDate,attr"`
	Metadata  []xmlMetadatum `xml:"MetadataEntry"`
}

type xmlMetadatum struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// NewReader reads an export document from r.
func NewReader(r io.Reader) *Reader {
	dec := xml.NewDecoder(bufio.NewReaderSize(r, 64*1024))
	return &Reader{dec: dec}
}

// Open opens an export.xml file or a zip archive containing one.
// Returns NOT_FOUND if path does not exist.
func Open(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, merrors.NewNotFound(filePath)
		}
		return nil, merrors.NewInternal(err)
	}

	head := make([]byte, len(zipMagic))
	n, _ := io.ReadFull(f, head)
	if n == len(zipMagic) && bytes.Equal(head, zipMagic) {
		_ = f.Close()
		return openZip(filePath)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, merrors.NewInternal(err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

func openZip(filePath string) (*Reader, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, merrors.NewMalformedExport(err)
	}
	for _, zf := range zr.File {
		if path.Base(zf.Name) != exportEntry {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			_ = zr.Close()
			return nil, merrors.NewMalformedExport(err)
		}
		r := NewReader(rc)
		r.closer = multiCloser{rc, zr}
		return r, nil
	}
	_ = zr.Close()
	return nil, merrors.NewMalformedExport(fmt.Errorf("archive has no %s", exportEntry))
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Next returns the next record. It returns io.EOF after the last record and a
// MALFORMED_EXPORT error if the document cannot be parsed.
func (r *Reader) Next() (nutrition.RawRecord, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nutrition.RawRecord{}, io.EOF
		}
		if err != nil {
			return nutrition.RawRecord{}, merrors.NewMalformedExport(err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Record" {
			continue
		}

		var x xmlRecord
		if err := r.dec.DecodeElement(&x, &se); err != nil {
			return nutrition.RawRecord{}, merrors.NewMalformedExport(err)
		}
		r.pos++
		return x.raw(r.pos), nil
	}
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (x xmlRecord) raw(pos int) nutrition.RawRecord {
	rec := nutrition.RawRecord{
		Position:  pos,
		Source:    x.Source,
		Type:      strings.TrimSpace(x.Type),
		Value:     x.Value,
		StartDate: x.StartDate,
	}
	if len(x.Metadata) > 0 {
		rec.Metadata = make(map[string]string, len(x.Metadata))
		for _, m := range x.Metadata {
			// Later duplicates of a key win.
			rec.Metadata[m.Key] = m.Value
		}
	}
	return rec
}
