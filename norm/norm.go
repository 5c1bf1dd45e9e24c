// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package norm provides library composition normalisation for expression
// count data.
//
// Each method takes the sample columns of a count matrix, one float64
// vector per sample with equal lengths, and returns one positive factor
// per sample. Factors are relative, rescaled so that their log mean is
// zero; consumers multiply them with the raw library sizes to obtain
// effective library sizes, and must not apply them to values that have
// already been depth-normalised. Factors are computed from the filtered
// count matrix so that noise genes do not distort the estimate.
package norm

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrLengths is returned when sample columns have unequal lengths.
var ErrLengths = errors.New("norm: mismatched column lengths")

// colSums validates the shape of cols and returns the per-column sums.
func colSums(cols [][]float64) ([]float64, error) {
	sums := make([]float64, len(cols))
	for i, col := range cols {
		if len(col) != len(cols[0]) {
			return nil, ErrLengths
		}
		for _, v := range col {
			sums[i] += v
		}
	}
	for i, s := range sums {
		if s <= 0 {
			return nil, fmt.Errorf("norm: column %d sums to %v", i, s)
		}
	}
	return sums, nil
}

// unit returns n unit factors.
func unit(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = 1
	}
	return f
}

// centre rescales f so that the mean of log f is zero, leaving the
// factors relative with geometric mean one.
func centre(f []float64) []float64 {
	var ml float64
	for _, v := range f {
		ml += math.Log(v)
	}
	ml = math.Exp(ml / float64(len(f)))
	for i := range f {
		f[i] /= ml
	}
	return f
}

// quantile returns the pth quantile of v by the R-7 method. v is sorted
// in place.
func quantile(v []float64, p float64) float64 {
	sort.Float64s(v)
	if p >= 1 {
		return v[len(v)-1]
	}
	h := float64(len(v)-1) * p
	i := int(h)
	if h == math.Floor(h) {
		return v[i]
	}
	return v[i] + (h-math.Floor(h))*(v[i+1]-v[i])
}

// midranks returns the sample ranks of v, zero-based, with ties assigned
// the mean rank of the tied run.
func midranks(v []float64) []float64 {
	ord := make([]int, len(v))
	for i := range ord {
		ord[i] = i
	}
	sort.SliceStable(ord, func(i, j int) bool { return v[ord[i]] < v[ord[j]] })

	r := make([]float64, len(v))
	for i := 0; i < len(ord); {
		j := i
		for j+1 < len(ord) && v[ord[j+1]] == v[ord[i]] {
			j++
		}
		mid := float64(i+j) / 2
		for k := i; k <= j; k++ {
			r[ord[k]] = mid
		}
		i = j + 1
	}
	return r
}

// TMMOptions control the trimmed mean of M-values computation.
type TMMOptions struct {
	// Ref selects the reference column. A negative value selects the
	// column whose upper quartile is closest to the mean upper quartile.
	Ref int

	// RatioTrim and IntensityTrim are the tail fractions discarded from
	// the log-ratio and log-intensity rankings before averaging.
	RatioTrim, IntensityTrim float64

	// MinIntensity rejects genes below this average log2 intensity.
	MinIntensity float64

	// NoWeight disables inverse asymptotic variance weighting of the
	// retained log-ratios.
	NoWeight bool
}

// TMM returns normalisation factors for the sample columns by the
// trimmed mean of M-values method with the conventional parameters:
// automatic reference selection, 30% log-ratio trim, 5% intensity trim
// and variance weighting.
//
// "A scaling normalization method for differential expression analysis
// of RNA-seq data", Mark Robinson and Alicia Oshlack,
// http://genomebiology.com/2010/11/3/r25.
func TMM(cols [][]float64) ([]float64, error) {
	return TMMWith(cols, TMMOptions{
		Ref:           -1,
		RatioTrim:     0.3,
		IntensityTrim: 0.05,
		MinIntensity:  math.Inf(-1),
	})
}

// TMMWith is TMM with explicit options.
func TMMWith(cols [][]float64, opt TMMOptions) ([]float64, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	if len(cols[0]) == 0 {
		return unit(len(cols)), nil
	}
	if len(cols) == 1 {
		return []float64{1}, nil
	}
	sums, err := colSums(cols)
	if err != nil {
		return nil, err
	}

	ref := opt.Ref
	if ref < 0 || ref >= len(cols) {
		ref = refColumn(cols, sums)
	}

	f := make([]float64, len(cols))
	for i, col := range cols {
		f[i] = pairFactor(col, cols[ref], sums[i], sums[ref], opt)
	}
	return centre(f), nil
}

// refColumn returns the index of the column whose upper quartile of
// depth-normalised values is closest to the mean upper quartile.
func refColumn(cols [][]float64, sums []float64) int {
	q := make([]float64, len(cols))
	scaled := make([]float64, 0, len(cols[0]))
	var mean float64
	for i, col := range cols {
		scaled = scaled[:0]
		for _, v := range col {
			scaled = append(scaled, v/sums[i])
		}
		q[i] = quantile(scaled, 0.75)
		mean += q[i]
	}
	mean /= float64(len(q))

	ref := 0
	for i, v := range q {
		if math.Abs(v-mean) < math.Abs(q[ref]-mean) {
			ref = i
		}
	}
	return ref
}

// pairFactor returns the scaling of obs relative to ref as 2 to the
// trimmed, optionally weighted, mean of the gene-wise log-ratios.
func pairFactor(obs, ref []float64, sumObs, sumRef float64, opt TMMOptions) float64 {
	// Identical columns need no correction, and would otherwise yield
	// an empty ratio set.
	same := true
	for i, v := range obs {
		if ref[i] != v {
			same = false
			break
		}
	}
	if same {
		return 1
	}

	var (
		logRatio = make([]float64, 0, len(obs))
		logInt   = make([]float64, 0, len(obs))
		variance = make([]float64, 0, len(obs))
	)
	for i, v := range obs {
		po, pr := v/sumObs, ref[i]/sumRef
		m := math.Log2(po / pr)
		a := math.Log2(po*pr) / 2
		if a < opt.MinIntensity || math.IsInf(m, 0) || math.IsNaN(m) || math.IsInf(a, 0) || math.IsNaN(a) {
			continue
		}
		logRatio = append(logRatio, m)
		logInt = append(logInt, a)
		if !opt.NoWeight {
			variance = append(variance, (sumObs-v)/(sumObs*v)+(sumRef-ref[i])/(sumRef*ref[i]))
		}
	}
	if len(logRatio) == 0 {
		return 1
	}

	n := float64(len(logRatio))
	loM := math.Floor(n * opt.RatioTrim)
	hiM := n - loM - 1
	loA := math.Floor(n * opt.IntensityTrim)
	hiA := n - loA - 1

	rM := midranks(logRatio)
	rA := midranks(logInt)

	var num, den float64
	for i, m := range logRatio {
		if rM[i] < loM || rM[i] > hiM || rA[i] < loA || rA[i] > hiA {
			continue
		}
		if opt.NoWeight {
			num += m
			den++
		} else {
			num += m / variance[i]
			den += 1 / variance[i]
		}
	}
	if den == 0 {
		return 1
	}
	return math.Pow(2, num/den)
}

// allZero flags the rows of cols that are zero in every column. Such
// rows carry no scaling information and are skipped by the quantile and
// relative log methods.
func allZero(cols [][]float64) []bool {
	zero := make([]bool, len(cols[0]))
	for i := range zero {
		zero[i] = true
		for _, col := range cols {
			if col[i] != 0 {
				zero[i] = false
				break
			}
		}
	}
	return zero
}

// UpperQuartile returns normalisation factors from the p-quantile of
// each column's depth-normalised values, skipping rows that are zero
// everywhere. p is conventionally 0.75.
//
// "Evaluation of statistical methods for normalization and differential
// expression in mRNA-Seq experiments", James Bullard et al.,
// http://www.biomedcentral.com/1471-2105/11/94.
func UpperQuartile(cols [][]float64, p float64) ([]float64, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	if len(cols[0]) == 0 {
		return unit(len(cols)), nil
	}
	if len(cols) == 1 {
		return []float64{1}, nil
	}
	sums, err := colSums(cols)
	if err != nil {
		return nil, err
	}

	zero := allZero(cols)
	f := make([]float64, len(cols))
	scaled := make([]float64, 0, len(cols[0]))
	for i, col := range cols {
		scaled = scaled[:0]
		for j, v := range col {
			if zero[j] {
				continue
			}
			scaled = append(scaled, v/sums[i])
		}
		if len(scaled) == 0 {
			return nil, errors.New("norm: all rows are zero")
		}
		f[i] = quantile(scaled, p)
	}
	return centre(f), nil
}

// RelativeLog returns normalisation factors from the median ratio of
// each column to the gene-wise geometric mean across columns, skipping
// rows that are zero everywhere.
//
// "Differential expression analysis for sequence count data", Simon
// Anders and Wolfgang Huber, http://genomebiology.com/2010/11/10/r106.
func RelativeLog(cols [][]float64) ([]float64, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	if len(cols[0]) == 0 {
		return unit(len(cols)), nil
	}
	if len(cols) == 1 {
		return []float64{1}, nil
	}
	sums, err := colSums(cols)
	if err != nil {
		return nil, err
	}

	zero := allZero(cols)
	gm := make([]float64, len(cols[0]))
	for i := range gm {
		if zero[i] {
			continue
		}
		var lg float64
		for _, col := range cols {
			lg += math.Log(col[i])
		}
		gm[i] = math.Exp(lg / float64(len(cols)))
	}

	f := make([]float64, len(cols))
	ratios := make([]float64, 0, len(gm))
	for j, col := range cols {
		ratios = ratios[:0]
		for i, v := range col {
			if zero[i] || gm[i] == 0 {
				continue
			}
			ratios = append(ratios, v/gm[i])
		}
		if len(ratios) == 0 {
			return nil, errors.New("norm: no finite ratios to geometric mean")
		}
		f[j] = quantile(ratios, 0.5) / sums[j]
	}
	return centre(f), nil
}
