package main

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/biogo/chitra/exprmat"
)

const (
	plotWidth  = 7 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// plotLibSizes renders a bar chart of library sizes in millions of
// reads.
func plotLibSizes(samples []string, lib []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Library sizes"
	p.Y.Label.Text = "Reads (millions)"

	vals := make(plotter.Values, len(lib))
	for i, l := range lib {
		vals[i] = l / 1e6
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(samples...)

	return p.Save(plotWidth, plotHeight, path)
}

// plotBoxes renders one log-CPM box per sample.
func plotBoxes(title string, m *exprmat.LogCPMMatrix, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Log-CPM"

	for i, col := range m.Data {
		b, err := plotter.NewBoxPlot(vg.Points(15), float64(i), plotter.Values(col))
		if err != nil {
			return err
		}
		b.FillColor = plotutil.Color(0)
		p.Add(b)
	}
	p.NominalX(m.Samples...)

	return p.Save(plotWidth, plotHeight, path)
}

// plotRLE renders per-sample boxes of relative log expression with a
// zero guide line.
func plotRLE(m *exprmat.LogCPMMatrix, path string) error {
	rle := m.RLE()

	p := plot.New()
	p.Title.Text = "Relative log expression"
	p.Y.Label.Text = "Log-CPM deviation from gene median"

	for i, col := range rle.Data {
		b, err := plotter.NewBoxPlot(vg.Points(15), float64(i), plotter.Values(col))
		if err != nil {
			return err
		}
		b.FillColor = plotutil.Color(2)
		p.Add(b)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: 0}, {X: float64(len(rle.Data)) - 0.5, Y: 0}})
	if err != nil {
		return err
	}
	zero.LineStyle.Dashes = plotutil.Dashes(1)
	p.Add(zero)
	p.NominalX(rle.Samples...)

	return p.Save(plotWidth, plotHeight, path)
}

// plotMDS renders a multidimensional scaling view of the samples,
// coloured and glyphed by the levels of f and labelled by sample name.
func plotMDS(m *exprmat.LogCPMMatrix, f *exprmat.Factor, top int, path string) error {
	coords, explained, err := m.MDS(top)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "MDS by " + f.Name
	p.X.Label.Text = fmt.Sprintf("Dimension 1 (%.0f%%)", explained[0]*100)
	p.Y.Label.Text = fmt.Sprintf("Dimension 2 (%.0f%%)", explained[1]*100)

	for l, level := range f.Levels {
		var xys plotter.XYs
		for i, c := range coords {
			if f.Index[i] == l {
				xys = append(xys, plotter.XY{X: c[0], Y: c[1]})
			}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = plotutil.Color(l)
		s.GlyphStyle.Shape = plotutil.Shape(l)
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(level, s)
	}

	lab := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(coords)),
		Labels: m.Samples,
	}
	for i, c := range coords {
		lab.XYs[i] = plotter.XY{X: c[0], Y: c[1]}
	}
	labels, err := plotter.NewLabels(lab)
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(8)
	}
	p.Add(labels)
	p.Legend.Top = true

	return p.Save(plotWidth, plotHeight, path)
}

// heatGrid adapts a column-major value matrix to plotter.GridXYZ.
type heatGrid struct {
	z [][]float64 // One slice per displayed column.
}

func (g heatGrid) Dims() (c, r int)   { return len(g.z), len(g.z[0]) }
func (g heatGrid) Z(c, r int) float64 { return g.z[c][r] }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }

// plotHeatMap renders the top most variable genes as a heatmap with rows
// and columns ordered by average linkage clustering on Euclidean
// distance.
func plotHeatMap(m *exprmat.LogCPMMatrix, top int, path string) error {
	idx := m.TopVariable(top)

	// Gene vectors across samples and sample vectors across the chosen
	// genes, for the two clustering passes.
	geneVec := make([][]float64, len(idx))
	for i, g := range idx {
		geneVec[i] = m.Row(g)
	}
	sampleVec := make([][]float64, len(m.Data))
	for s, col := range m.Data {
		v := make([]float64, len(idx))
		for i, g := range idx {
			v[i] = col[g]
		}
		sampleVec[s] = v
	}
	geneOrder := clusterOrder(distances(geneVec))
	sampleOrder := clusterOrder(distances(sampleVec))

	grid := heatGrid{z: make([][]float64, len(sampleOrder))}
	min, max := math.Inf(1), math.Inf(-1)
	for c, s := range sampleOrder {
		col := make([]float64, len(geneOrder))
		for r, g := range geneOrder {
			v := sampleVec[s][g]
			col[r] = v
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		grid.z[c] = col
	}

	cm := moreland.Kindlmann()
	cm.SetMin(min)
	cm.SetMax(max)
	pal := cm.Palette(255)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d variable genes", len(idx))
	h := plotter.NewHeatMap(grid, pal)
	p.Add(h)

	samples := make([]string, len(sampleOrder))
	for c, s := range sampleOrder {
		samples[c] = m.Samples[s]
	}
	genes := make([]string, len(geneOrder))
	for r, g := range geneOrder {
		genes[r] = m.GeneIDs[idx[g]]
	}
	p.NominalX(samples...)
	p.NominalY(genes...)
	p.Y.Tick.Label.Font.Size = vg.Points(4)

	return p.Save(plotWidth, 9*vg.Inch, path)
}

// plotMD renders a mean-difference view of sample s: each gene's
// log-CPM deviation from the average of the remaining samples against
// that average.
func plotMD(m *exprmat.LogCPMMatrix, s int, path string) error {
	col := m.Data[s]
	xys := make(plotter.XYs, len(col))
	for g, v := range col {
		var rest float64
		for o, other := range m.Data {
			if o != s {
				rest += other[g]
			}
		}
		rest /= float64(len(m.Data) - 1)
		xys[g] = plotter.XY{X: (v + rest) / 2, Y: v - rest}
	}

	p := plot.New()
	p.Title.Text = "Mean-difference: " + m.Samples[s]
	p.X.Label.Text = "Average log-CPM"
	p.Y.Label.Text = "Log-CPM difference"

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Radius = vg.Points(1)
	p.Add(sc)

	lo, hi := xys[0].X, xys[0].X
	for _, xy := range xys {
		lo = math.Min(lo, xy.X)
		hi = math.Max(hi, xy.X)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 0}, {X: hi, Y: 0}})
	if err != nil {
		return err
	}
	zero.LineStyle.Dashes = plotutil.Dashes(1)
	p.Add(zero)

	return p.Save(plotWidth, plotHeight, path)
}
