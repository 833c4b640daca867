// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Record accumulates the entries of a wheel for its RECORD file.
type Record struct {
	entries []Entry
}

// Add appends an entry.
func (r *Record) Add(e Entry) {
	r.entries = append(r.entries, e)
}

// Entries returns the accumulated entries.
func (r *Record) Entries() []Entry {
	return r.entries
}

// Render produces the RECORD content. self is the path of the RECORD file,
// listed last with an empty hash and size.
func (r *Record) Render(self string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, e := range r.entries {
		if err := w.Write([]string{e.Path, e.Hash, strconv.FormatInt(e.Size, 10)}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{self, "", ""}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseRecord reads RECORD content. The size of an entry without one is -1.
func ParseRecord(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse RECORD: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := Entry{Path: row[0], Hash: row[1], Size: -1}
		if row[2] != "" {
			if e.Size, err = strconv.ParseInt(row[2], 10, 64); err != nil {
				return nil, fmt.Errorf("invalid size for %s in RECORD: %w", row[0], err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
