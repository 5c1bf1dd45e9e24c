// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exprmat provides value types and arithmetic for gene expression
// count matrices.
//
// Matrices are held column-major, one float64 vector per sample, so that
// sample columns can be handed directly to the normalisation functions in
// the norm package. Each derived matrix is a distinct immutable value;
// the pipeline Counts → CPM → filtered Counts → LogCPM has no back-edges
// and re-running a stage requires recomputing everything downstream.
package exprmat

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Counts is a gene-by-sample matrix of read counts. Entries are
// non-negative integral values held as float64. GeneIDs are unique and
// Samples match the order of the sample sheet used to construct the
// experiment's factors.
type Counts struct {
	GeneIDs []string
	Meta    []string // Per-gene annotation carried from the count table.
	Samples []string

	// Data holds one column vector per sample, each len(GeneIDs) long.
	Data [][]float64
}

// NewCounts returns a Counts for the given identifiers and column data.
// It returns an error if gene identifiers are not unique, if column
// shapes disagree, or if any entry is negative or non-integral.
func NewCounts(geneIDs, meta, samples []string, data [][]float64) (*Counts, error) {
	if meta != nil && len(meta) != len(geneIDs) {
		return nil, errors.New("exprmat: gene metadata length mismatch")
	}
	if len(data) != len(samples) {
		return nil, fmt.Errorf("exprmat: %d data columns for %d samples", len(data), len(samples))
	}
	seen := make(map[string]bool, len(geneIDs))
	for _, id := range geneIDs {
		if seen[id] {
			return nil, fmt.Errorf("exprmat: duplicate gene identifier %q", id)
		}
		seen[id] = true
	}
	for i, col := range data {
		if len(col) != len(geneIDs) {
			return nil, fmt.Errorf("exprmat: column %q has %d rows, want %d", samples[i], len(col), len(geneIDs))
		}
		for j, v := range col {
			if v < 0 || v != math.Trunc(v) {
				return nil, fmt.Errorf("exprmat: count for gene %q in sample %q is not a non-negative integer: %v", geneIDs[j], samples[i], v)
			}
		}
	}
	return &Counts{GeneIDs: geneIDs, Meta: meta, Samples: samples, Data: data}, nil
}

// Dims returns the number of genes and samples.
func (c *Counts) Dims() (genes, samples int) { return len(c.GeneIDs), len(c.Samples) }

// LibSizes returns the per-sample library sizes, the column sums of the
// count matrix.
func (c *Counts) LibSizes() []float64 {
	lib := make([]float64, len(c.Data))
	for i, col := range c.Data {
		for _, v := range col {
			lib[i] += v
		}
	}
	return lib
}

// CPMMatrix is a gene-by-sample matrix of counts per million, aligned
// row-for-row and column-for-column with the Counts it was derived from.
type CPMMatrix struct {
	GeneIDs []string
	Samples []string
	Data    [][]float64
}

// CPM returns the counts-per-million matrix for c over the given library
// sizes, cpm[g][s] = count[g][s] / lib[s] * 1e6. It returns an error if
// the number of library sizes does not equal the number of sample
// columns, or if any library size is not positive; a zero library size is
// rejected here rather than allowed to propagate as an Inf or NaN column.
func CPM(c *Counts, lib []float64) (*CPMMatrix, error) {
	if len(lib) != len(c.Data) {
		return nil, fmt.Errorf("exprmat: %d library sizes for %d sample columns", len(lib), len(c.Data))
	}
	for i, l := range lib {
		if l <= 0 || math.IsNaN(l) {
			return nil, fmt.Errorf("exprmat: non-positive library size for sample %q", c.Samples[i])
		}
	}
	m := &CPMMatrix{GeneIDs: c.GeneIDs, Samples: c.Samples, Data: make([][]float64, len(c.Data))}
	for i, col := range c.Data {
		scale := 1e6 / lib[i]
		cpm := make([]float64, len(col))
		for j, v := range col {
			cpm[j] = v * scale
		}
		m.Data[i] = cpm
	}
	return m, nil
}

// FilterByExpression returns the subset of c retaining genes whose CPM
// exceeds threshold in at least minSamples samples, in their original
// order. Thresholding is on CPM rather than raw counts so that the
// presence call is not biased toward samples with deeper sequencing.
// It returns an error if cpm and c are not aligned, if the parameters are
// out of range, or if no gene passes.
func FilterByExpression(cpm *CPMMatrix, c *Counts, threshold float64, minSamples int) (*Counts, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("exprmat: non-positive expression threshold %v", threshold)
	}
	if minSamples < 1 || minSamples > len(c.Samples) {
		return nil, fmt.Errorf("exprmat: minimum sample count %d out of range [1, %d]", minSamples, len(c.Samples))
	}
	if len(cpm.Data) != len(c.Data) || len(cpm.GeneIDs) != len(c.GeneIDs) {
		return nil, errors.New("exprmat: cpm and count matrix shapes disagree")
	}

	var keep []int
	for g := range c.GeneIDs {
		var n int
		for _, col := range cpm.Data {
			if col[g] > threshold {
				n++
			}
		}
		if n >= minSamples {
			keep = append(keep, g)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("exprmat: no gene exceeds CPM %v in %d or more samples", threshold, minSamples)
	}

	f := &Counts{
		GeneIDs: make([]string, len(keep)),
		Samples: c.Samples,
		Data:    make([][]float64, len(c.Data)),
	}
	if c.Meta != nil {
		f.Meta = make([]string, len(keep))
	}
	for i, g := range keep {
		f.GeneIDs[i] = c.GeneIDs[g]
		if c.Meta != nil {
			f.Meta[i] = c.Meta[g]
		}
	}
	for s, col := range c.Data {
		sub := make([]float64, len(keep))
		for i, g := range keep {
			sub[i] = col[g]
		}
		f.Data[s] = sub
	}
	return f, nil
}

// LogCPMMatrix is a gene-by-sample matrix of log2 counts per million.
type LogCPMMatrix struct {
	GeneIDs []string
	Samples []string
	Data    [][]float64
}

// LogCPM returns log2 counts per million for c over the given effective
// library sizes, with a prior count added to avoid the log of zero and to
// damp the variance of low counts. The prior is scaled per sample in
// proportion to its effective library size relative to the mean, and the
// library size is inflated by twice the scaled prior, so that equal
// counts in equally sized libraries map to equal log-CPM:
//
//	p[s] = prior * lib[s] / mean(lib)
//	logcpm[g][s] = log2( (count[g][s] + p[s]) / (lib[s] + 2*p[s]) * 1e6 )
//
// The caller passes the filtered count matrix and library sizes already
// multiplied by their normalisation factors; LogCPM must never be given
// the unfiltered matrix.
func LogCPM(c *Counts, lib []float64, prior float64) (*LogCPMMatrix, error) {
	if len(lib) != len(c.Data) {
		return nil, fmt.Errorf("exprmat: %d library sizes for %d sample columns", len(lib), len(c.Data))
	}
	if prior <= 0 {
		return nil, fmt.Errorf("exprmat: non-positive prior count %v", prior)
	}
	var mean float64
	for i, l := range lib {
		if l <= 0 || math.IsNaN(l) {
			return nil, fmt.Errorf("exprmat: non-positive library size for sample %q", c.Samples[i])
		}
		mean += l
	}
	mean /= float64(len(lib))

	m := &LogCPMMatrix{GeneIDs: c.GeneIDs, Samples: c.Samples, Data: make([][]float64, len(c.Data))}
	for i, col := range c.Data {
		p := prior * lib[i] / mean
		scale := 1e6 / (lib[i] + 2*p)
		lc := make([]float64, len(col))
		for j, v := range col {
			lc[j] = math.Log2((v + p) * scale)
		}
		m.Data[i] = lc
	}
	return m, nil
}

// RLE returns the relative log expression matrix, each entry the
// log-CPM minus the median log-CPM of its gene across samples. Well
// normalised samples have RLE distributions centred on zero.
func (m *LogCPMMatrix) RLE() *LogCPMMatrix {
	med := make([]float64, len(m.GeneIDs))
	row := make([]float64, len(m.Data))
	for g := range m.GeneIDs {
		for s, col := range m.Data {
			row[s] = col[g]
		}
		med[g] = median(row)
	}
	r := &LogCPMMatrix{GeneIDs: m.GeneIDs, Samples: m.Samples, Data: make([][]float64, len(m.Data))}
	for s, col := range m.Data {
		rle := make([]float64, len(col))
		for g, v := range col {
			rle[g] = v - med[g]
		}
		r.Data[s] = rle
	}
	return r
}

// median returns the median of v, leaving v unchanged.
func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	if len(s)%2 == 1 {
		return s[len(s)/2]
	}
	return (s[len(s)/2-1] + s[len(s)/2]) / 2
}

// Row returns gene row g of the matrix as a freshly allocated vector.
func (m *LogCPMMatrix) Row(g int) []float64 {
	row := make([]float64, len(m.Data))
	for s, col := range m.Data {
		row[s] = col[g]
	}
	return row
}

// CheckAligned confirms that the count table's sample columns and the
// sample sheet's identifier column hold the same identifiers in the same
// order. Misalignment is fatal to any downstream statistic, so the check
// is order-sensitive and reports the first disagreement.
func CheckAligned(counts, sheet []string) error {
	if len(counts) != len(sheet) {
		return fmt.Errorf("exprmat: count table has %d samples, sample sheet has %d", len(counts), len(sheet))
	}
	for i, id := range counts {
		if id != sheet[i] {
			return fmt.Errorf("exprmat: sample order mismatch at column %d: count table %q, sample sheet %q", i+1, id, sheet[i])
		}
	}
	return nil
}
