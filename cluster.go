package main

import "gonum.org/v1/gonum/floats"

// distances returns the symmetric Euclidean distance matrix of the
// given equal-length vectors.
func distances(vecs [][]float64) [][]float64 {
	d := make([][]float64, len(vecs))
	for i := range d {
		d[i] = make([]float64, len(vecs))
	}
	for i := range vecs {
		for j := i + 1; j < len(vecs); j++ {
			v := floats.Distance(vecs[i], vecs[j], 2)
			d[i][j] = v
			d[j][i] = v
		}
	}
	return d
}

// clusterOrder returns an ordering of the items described by the
// distance matrix d from average linkage agglomerative clustering, so
// that neighbours in the ordering are similar. The matrices here are
// heatmap sized, so the cubic merge loop is not a concern.
func clusterOrder(d [][]float64) []int {
	clusters := make([][]int, len(d))
	for i := range clusters {
		clusters[i] = []int{i}
	}

	linkage := func(a, b []int) float64 {
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += d[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for len(clusters) > 1 {
		bi, bj := 0, 1
		best := linkage(clusters[0], clusters[1])
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if l := linkage(clusters[i], clusters[j]); l < best {
					best, bi, bj = l, i, j
				}
			}
		}
		clusters[bi] = append(clusters[bi], clusters[bj]...)
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}
	return clusters[0]
}
