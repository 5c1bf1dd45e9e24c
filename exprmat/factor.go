// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprmat

import "fmt"

// Factor is a categorical sample attribute with a fixed set of levels
// determined when the sample sheet is loaded. Factors drive plot
// colouring and the default replicate count for expression filtering;
// they play no part in the normalisation arithmetic.
type Factor struct {
	Name   string
	Levels []string
	Index  []int // Per-sample index into Levels.
}

// NewFactor returns a Factor over the given per-sample values with
// levels in order of first appearance.
func NewFactor(name string, values []string) *Factor {
	f := &Factor{Name: name, Index: make([]int, len(values))}
	level := make(map[string]int)
	for i, v := range values {
		l, ok := level[v]
		if !ok {
			l = len(f.Levels)
			level[v] = l
			f.Levels = append(f.Levels, v)
		}
		f.Index[i] = l
	}
	return f
}

// Level returns the level of sample i.
func (f *Factor) Level(i int) string { return f.Levels[f.Index[i]] }

// LevelCounts returns the number of samples at each level.
func (f *Factor) LevelCounts() []int {
	n := make([]int, len(f.Levels))
	for _, l := range f.Index {
		n[l]++
	}
	return n
}

// MinGroupSize returns the size of the smallest level. A gene expressed
// in every replicate of the smallest group then survives the expression
// filter even if absent from all other groups.
func (f *Factor) MinGroupSize() int {
	min := len(f.Index)
	for _, n := range f.LevelCounts() {
		if n < min {
			min = n
		}
	}
	return min
}

func (f *Factor) String() string {
	return fmt.Sprintf("%s%v", f.Name, f.Levels)
}
