// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprmat

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TopVariable returns the indices of the n genes with the greatest
// log-CPM variance across samples, most variable first. If n exceeds the
// number of genes all gene indices are returned.
func (m *LogCPMMatrix) TopVariable(n int) []int {
	genes := len(m.GeneIDs)
	v := make([]float64, genes)
	row := make([]float64, len(m.Data))
	for g := 0; g < genes; g++ {
		for s, col := range m.Data {
			row[s] = col[g]
		}
		v[g] = stat.Variance(row, nil)
	}
	idx := make([]int, genes)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return v[idx[i]] > v[idx[j]] })
	if n < genes {
		idx = idx[:n]
	}
	return idx
}

// MDS returns two-dimensional coordinates for each sample from classical
// multidimensional scaling of inter-sample distances, along with the
// proportion of variation each dimension carries. The distance between
// two samples is the root mean squared log-CPM difference over the top
// most variable genes. The projection itself is an eigendecomposition of
// the double-centred squared distance matrix, delegated to gonum.
func (m *LogCPMMatrix) MDS(top int) (coords [][2]float64, explained [2]float64, err error) {
	n := len(m.Data)
	if n < 3 {
		return nil, explained, errors.New("exprmat: multidimensional scaling requires at least three samples")
	}
	idx := m.TopVariable(top)

	// Squared distances, then double centring into the inner product
	// matrix b = -1/2 J d² J.
	d2 := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var ss float64
			for _, g := range idx {
				d := m.Data[i][g] - m.Data[j][g]
				ss += d * d
			}
			d2.SetSym(i, j, ss/float64(len(idx)))
		}
	}
	rowMean := make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowMean[i] += d2.At(i, j)
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(d2.At(i, j)-rowMean[i]-rowMean[j]+grand))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(b, true) {
		return nil, explained, errors.New("exprmat: eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues are in ascending order; the leading two dimensions are
	// the last two columns.
	var pos float64
	for _, v := range vals {
		if v > 0 {
			pos += v
		}
	}
	coords = make([][2]float64, n)
	for k := 0; k < 2; k++ {
		j := n - 1 - k
		scale := math.Sqrt(math.Max(vals[j], 0))
		for i := 0; i < n; i++ {
			coords[i][k] = vecs.At(i, j) * scale
		}
		if pos > 0 {
			explained[k] = math.Max(vals[j], 0) / pos
		}
	}
	return coords, explained, nil
}
