// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exprmat

import (
	"math"
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

// mustCounts builds a Counts from row-major values for readability.
func mustCounts(c *check.C, geneIDs, samples []string, rows [][]float64) *Counts {
	data := make([][]float64, len(samples))
	for s := range samples {
		col := make([]float64, len(geneIDs))
		for g := range geneIDs {
			col[g] = rows[g][s]
		}
		data[s] = col
	}
	m, err := NewCounts(geneIDs, nil, samples, data)
	c.Assert(err, check.IsNil)
	return m
}

var unitLib = []float64{1e6, 1e6, 1e6, 1e6}

func (s *S) TestNewCounts(c *check.C) {
	_, err := NewCounts([]string{"g1", "g1"}, nil, []string{"s1"}, [][]float64{{1, 2}})
	c.Check(err, check.ErrorMatches, `exprmat: duplicate gene identifier "g1"`)

	_, err = NewCounts([]string{"g1"}, nil, []string{"s1"}, [][]float64{{-1}})
	c.Check(err, check.ErrorMatches, "exprmat: count .* not a non-negative integer.*")

	_, err = NewCounts([]string{"g1"}, nil, []string{"s1"}, [][]float64{{1.5}})
	c.Check(err, check.ErrorMatches, "exprmat: count .* not a non-negative integer.*")

	_, err = NewCounts([]string{"g1"}, nil, []string{"s1", "s2"}, [][]float64{{1}})
	c.Check(err, check.ErrorMatches, "exprmat: 1 data columns for 2 samples")
}

func (s *S) TestLibSizes(c *check.C) {
	m := mustCounts(c, []string{"g1", "g2"}, []string{"s1", "s2"}, [][]float64{
		{1, 10},
		{2, 20},
	})
	c.Check(m.LibSizes(), check.DeepEquals, []float64{3, 30})
}

func (s *S) TestCPM(c *check.C) {
	m := mustCounts(c, []string{"g1", "g2"}, []string{"s1", "s2"}, [][]float64{
		{0, 10},
		{5, 0},
	})
	cpm, err := CPM(m, []float64{10, 20})
	c.Assert(err, check.IsNil)
	c.Check(len(cpm.Data), check.Equals, len(m.Data))
	for i := range cpm.Data {
		c.Check(len(cpm.Data[i]), check.Equals, len(m.GeneIDs))
	}
	c.Check(cpm.Data[0], check.DeepEquals, []float64{0, 5e5})
	c.Check(cpm.Data[1], check.DeepEquals, []float64{5e5, 0})

	// Zero counts map to zero CPM and only zero counts do.
	for i, col := range cpm.Data {
		for g, v := range col {
			c.Check(v == 0, check.Equals, m.Data[i][g] == 0)
		}
	}

	_, err = CPM(m, []float64{10})
	c.Check(err, check.ErrorMatches, "exprmat: 1 library sizes for 2 sample columns")

	_, err = CPM(m, []float64{10, 0})
	c.Check(err, check.ErrorMatches, `exprmat: non-positive library size for sample "s2"`)
}

func (s *S) TestFilterByExpression(c *check.C) {
	// One silent gene, one gene present in a single sample and two genes
	// present in at least two samples.
	m := mustCounts(c, []string{"g1", "g2", "g3", "g4"}, []string{"s1", "s2", "s3", "s4"}, [][]float64{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{1, 2, 0, 0},
		{5, 5, 5, 5},
	})
	cpm, err := CPM(m, unitLib)
	c.Assert(err, check.IsNil)

	f, err := FilterByExpression(cpm, m, 0.5, 2)
	c.Assert(err, check.IsNil)
	c.Check(f.GeneIDs, check.DeepEquals, []string{"g3", "g4"})
	c.Check(f.Samples, check.DeepEquals, m.Samples)
	c.Check(f.Data[0], check.DeepEquals, []float64{1, 5})
	c.Check(f.Data[1], check.DeepEquals, []float64{2, 5})

	// Raising the threshold or the sample requirement never retains
	// more genes.
	prev := len(f.GeneIDs)
	for _, thresh := range []float64{1.5, 3, 10} {
		g, err := FilterByExpression(cpm, m, thresh, 2)
		if err != nil {
			prev = 0
			continue
		}
		c.Check(len(g.GeneIDs) <= prev, check.Equals, true)
		prev = len(g.GeneIDs)
	}
	prev = 4
	for min := 1; min <= 4; min++ {
		g, err := FilterByExpression(cpm, m, 0.5, min)
		if err != nil {
			prev = 0
			continue
		}
		c.Check(len(g.GeneIDs) <= prev, check.Equals, true)
		prev = len(g.GeneIDs)
	}

	// Filtering is a fixed point: reapplying it with the same
	// parameters keeps exactly the same genes.
	fcpm, err := CPM(f, unitLib)
	c.Assert(err, check.IsNil)
	ff, err := FilterByExpression(fcpm, f, 0.5, 2)
	c.Assert(err, check.IsNil)
	c.Check(ff.GeneIDs, check.DeepEquals, f.GeneIDs)
	c.Check(ff.Data, check.DeepEquals, f.Data)

	_, err = FilterByExpression(cpm, m, 1e9, 4)
	c.Check(err, check.ErrorMatches, "exprmat: no gene exceeds.*")

	_, err = FilterByExpression(cpm, m, 0.5, 0)
	c.Check(err, check.ErrorMatches, "exprmat: minimum sample count.*")
}

func (s *S) TestLogCPM(c *check.C) {
	m := mustCounts(c, []string{"g1", "g2"}, []string{"s1", "s2"}, [][]float64{
		{0, 0},
		{10, 10},
	})
	lib := []float64{100, 100}

	l, err := LogCPM(m, lib, 0.5)
	c.Assert(err, check.IsNil)
	// Equal library sizes leave the prior unscaled:
	// log2((count + 0.5) / (100 + 1) * 1e6).
	c.Check(l.Data[0][0], checkWithin, math.Log2(0.5/101*1e6), 1e-12)
	c.Check(l.Data[0][1], checkWithin, math.Log2(10.5/101*1e6), 1e-12)
	c.Check(l.Data[0], check.DeepEquals, l.Data[1])

	_, err = LogCPM(m, []float64{100}, 0.5)
	c.Check(err, check.ErrorMatches, "exprmat: 1 library sizes for 2 sample columns")
	_, err = LogCPM(m, lib, 0)
	c.Check(err, check.ErrorMatches, "exprmat: non-positive prior count 0")
}

func (s *S) TestRLE(c *check.C) {
	l := &LogCPMMatrix{
		GeneIDs: []string{"g1", "g2"},
		Samples: []string{"s1", "s2", "s3"},
		Data:    [][]float64{{1, 4}, {2, 5}, {3, 9}},
	}
	r := l.RLE()
	c.Check(r.Data[0], check.DeepEquals, []float64{-1, -1})
	c.Check(r.Data[1], check.DeepEquals, []float64{0, 0})
	c.Check(r.Data[2], check.DeepEquals, []float64{1, 4})
}

func (s *S) TestTopVariable(c *check.C) {
	l := &LogCPMMatrix{
		GeneIDs: []string{"flat", "wild", "mild"},
		Samples: []string{"s1", "s2", "s3"},
		Data:    [][]float64{{1, 0, 2}, {1, 10, 3}, {1, -10, 1}},
	}
	c.Check(l.TopVariable(2), check.DeepEquals, []int{1, 2})
	c.Check(l.TopVariable(10), check.DeepEquals, []int{1, 2, 0})
}

func (s *S) TestMDS(c *check.C) {
	// Two pairs of identical samples must project to two coincident
	// pairs of points.
	l := &LogCPMMatrix{
		GeneIDs: []string{"g1", "g2", "g3"},
		Samples: []string{"a1", "a2", "b1", "b2"},
		Data: [][]float64{
			{1, 2, 3},
			{1, 2, 3},
			{7, 2, 0},
			{7, 2, 0},
		},
	}
	coords, explained, err := l.MDS(500)
	c.Assert(err, check.IsNil)
	c.Assert(len(coords), check.Equals, 4)
	for k := 0; k < 2; k++ {
		c.Check(coords[0][k], checkWithin, coords[1][k], 1e-9)
		c.Check(coords[2][k], checkWithin, coords[3][k], 1e-9)
	}
	c.Check(explained[0] >= explained[1], check.Equals, true)
	c.Check(math.Abs(coords[0][0]-coords[2][0]) > 1e-6, check.Equals, true)

	short := &LogCPMMatrix{Samples: []string{"s1", "s2"}, GeneIDs: []string{"g1"}, Data: [][]float64{{1}, {2}}}
	_, _, err = short.MDS(500)
	c.Check(err, check.ErrorMatches, "exprmat: multidimensional scaling requires at least three samples")
}

func (s *S) TestCheckAligned(c *check.C) {
	c.Check(CheckAligned([]string{"S1", "S2", "S3"}, []string{"S1", "S2", "S3"}), check.IsNil)
	err := CheckAligned([]string{"S1", "S2", "S3"}, []string{"S2", "S1", "S3"})
	c.Check(err, check.ErrorMatches, `exprmat: sample order mismatch at column 1: count table "S1", sample sheet "S2"`)
	err = CheckAligned([]string{"S1"}, []string{"S1", "S2"})
	c.Check(err, check.ErrorMatches, "exprmat: count table has 1 samples, sample sheet has 2")
}

func (s *S) TestFactor(c *check.C) {
	f := NewFactor("group", []string{"LP", "ML", "Basal", "LP", "ML", "Basal", "LP"})
	c.Check(f.Levels, check.DeepEquals, []string{"LP", "ML", "Basal"})
	c.Check(f.Index, check.DeepEquals, []int{0, 1, 2, 0, 1, 2, 0})
	c.Check(f.Level(2), check.Equals, "Basal")
	c.Check(f.LevelCounts(), check.DeepEquals, []int{3, 2, 2})
	c.Check(f.MinGroupSize(), check.Equals, 2)
}

// checkWithin checks numerical equality within a tolerance.
var checkWithin = &withinChecker{
	&check.CheckerInfo{Name: "Within", Params: []string{"obtained", "expected", "tolerance"}},
}

type withinChecker struct {
	*check.CheckerInfo
}

func (ch *withinChecker) Check(params []interface{}, names []string) (bool, string) {
	obtained, ok := params[0].(float64)
	if !ok {
		return false, "obtained is not a float64"
	}
	expected, ok := params[1].(float64)
	if !ok {
		return false, "expected is not a float64"
	}
	tol, ok := params[2].(float64)
	if !ok {
		return false, "tolerance is not a float64"
	}
	return math.Abs(obtained-expected) <= tol, ""
}
