package main

import (
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestDistances(c *check.C) {
	d := distances([][]float64{{0, 0}, {3, 4}, {0, 0}})
	c.Check(d[0][1], check.Equals, 5.0)
	c.Check(d[1][0], check.Equals, 5.0)
	c.Check(d[0][2], check.Equals, 0.0)
	c.Check(d[1][1], check.Equals, 0.0)
}

func (s *S) TestClusterOrder(c *check.C) {
	// Two tight groups, {0,2} and {1,3}, must end up adjacent in the
	// leaf ordering.
	vecs := [][]float64{
		{0, 0},
		{10, 10},
		{0, 1},
		{10, 11},
	}
	order := clusterOrder(distances(vecs))
	c.Assert(len(order), check.Equals, 4)
	seen := make(map[int]bool)
	for _, i := range order {
		seen[i] = true
	}
	c.Check(len(seen), check.Equals, 4)

	pos := make([]int, 4)
	for p, i := range order {
		pos[i] = p
	}
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	c.Check(abs(pos[0]-pos[2]), check.Equals, 1)
	c.Check(abs(pos[1]-pos[3]), check.Equals, 1)

	c.Check(clusterOrder(distances([][]float64{{1}})), check.DeepEquals, []int{0})
}
