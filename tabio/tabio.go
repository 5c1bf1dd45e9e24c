// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabio reads the delimited tables consumed by chitra: a
// featureCounts-style gene count table and a sample sheet of categorical
// attributes.
package tabio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CountTable is the parsed form of a count table. The first column of
// the file is the gene identifier, the second a per-gene annotation
// (typically length), and each remaining column the counts for one
// sample named by the header row.
type CountTable struct {
	GeneIDs []string
	Meta    []string
	Samples []string
	Columns [][]float64 // One vector per sample.
}

// ReadCounts parses a count table from r using the given field
// delimiter.
func ReadCounts(r io.Reader, sep rune) (*CountTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("tabio: reading count table header: %v", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("tabio: count table has %d columns, want at least 3", len(header))
	}
	t := &CountTable{
		Samples: header[2:],
		Columns: make([][]float64, len(header)-2),
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabio: reading count table: %v", err)
		}
		t.GeneIDs = append(t.GeneIDs, rec[0])
		t.Meta = append(t.Meta, rec[1])
		for i, field := range rec[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("tabio: count table line %d, sample %q: %v", line, t.Samples[i], err)
			}
			t.Columns[i] = append(t.Columns[i], v)
		}
	}
	if len(t.GeneIDs) == 0 {
		return nil, fmt.Errorf("tabio: count table has no gene rows")
	}
	return t, nil
}

// ReadCountsFile is ReadCounts on the named file.
func ReadCountsFile(path string, sep rune) (*CountTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCounts(f, sep)
}

// SampleTable is the parsed form of a sample sheet. The first column of
// the file identifies the sample; every other column is a categorical
// attribute keyed by its header name.
type SampleTable struct {
	IDs     []string
	Names   []string // Attribute column names in file order.
	Columns map[string][]string
}

// ReadSamples parses a sample sheet from r using the given field
// delimiter.
func ReadSamples(r io.Reader, sep rune) (*SampleTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("tabio: reading sample sheet header: %v", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("tabio: sample sheet has %d columns, want at least 2", len(header))
	}
	t := &SampleTable{
		Names:   header[1:],
		Columns: make(map[string][]string, len(header)-1),
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabio: reading sample sheet: %v", err)
		}
		t.IDs = append(t.IDs, rec[0])
		for i, name := range t.Names {
			t.Columns[name] = append(t.Columns[name], rec[i+1])
		}
	}
	if len(t.IDs) == 0 {
		return nil, fmt.Errorf("tabio: sample sheet has no sample rows")
	}
	return t, nil
}

// ReadSamplesFile is ReadSamples on the named file.
func ReadSamplesFile(path string, sep rune) (*SampleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSamples(f, sep)
}

// TruncateIDs returns ids shortened to at most n characters. Sequencing
// cores commonly emit sample column names carrying run suffixes that the
// sample sheet omits; the correct width is a property of the local
// naming convention, so n is a parameter rather than a constant, and
// n <= 0 leaves the identifiers untouched.
func TruncateIDs(ids []string, n int) []string {
	if n <= 0 {
		return ids
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > n {
			id = id[:n]
		}
		out[i] = id
	}
	return out
}
