// chitra draws exploratory quality-assessment plots for RNA-seq count
// data. It reads a gene count table and a sample sheet, checks that the
// two agree on sample order, filters lowly-expressed genes, computes
// composition normalisation factors and renders library size, log-CPM
// distribution, relative log expression, multidimensional scaling,
// variable gene heatmap and mean-difference views as PNG images.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/biogo/chitra/exprmat"
	"github.com/biogo/chitra/norm"
	"github.com/biogo/chitra/tabio"
)

func main() {
	countName := flag.String("counts", "", "filename for the gene count table (mandatory).")
	sheetName := flag.String("samples", "", "filename for the sample sheet (mandatory).")
	sep := flag.String("sep", "\t", "column delimiter for both input tables.")
	idLen := flag.Int("idlen", 7, "width sample identifiers are truncated to before matching (0 for no truncation).")
	group := flag.String("group", "group", "sample sheet column holding the biological group.")
	thresh := flag.Float64("thresh", 0.5, "CPM threshold above which a gene counts as expressed in a sample.")
	minSamp := flag.Int("min", 0, "samples a gene must be expressed in to be kept (0 uses the smallest group size).")
	method := flag.String("method", "tmm", "normalisation method: tmm, rle, quantile or none.")
	prior := flag.Float64("prior", 0.5, "prior count for log-CPM computation.")
	mdsTop := flag.Int("mdstop", 500, "number of most variable genes used for MDS distances.")
	hmTop := flag.Int("hmtop", 100, "number of most variable genes shown in the heatmap.")
	outDir := flag.String("out", ".", "directory plots are written to.")
	help := flag.Bool("help", false, "print this usage message.")

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *countName == "" || *sheetName == "" {
		fmt.Fprintln(os.Stderr, "Must specify counts and samples")
		flag.Usage()
		os.Exit(1)
	}
	if *sep == "" {
		log.Fatal("empty column delimiter")
	}
	delim := []rune(*sep)[0]

	table, err := tabio.ReadCountsFile(*countName, delim)
	if err != nil {
		log.Fatalf("could not read count table: %v", err)
	}
	sheet, err := tabio.ReadSamplesFile(*sheetName, delim)
	if err != nil {
		log.Fatalf("could not read sample sheet: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Read %d genes over %d samples from %q.\n", len(table.GeneIDs), len(table.Samples), *countName)

	samples := tabio.TruncateIDs(table.Samples, *idLen)
	sheetIDs := tabio.TruncateIDs(sheet.IDs, *idLen)
	if err := exprmat.CheckAligned(samples, sheetIDs); err != nil {
		log.Fatalf("input tables disagree: %v", err)
	}

	factors := make([]*exprmat.Factor, 0, len(sheet.Names))
	var grouping *exprmat.Factor
	for _, name := range sheet.Names {
		f := exprmat.NewFactor(name, sheet.Columns[name])
		factors = append(factors, f)
		if name == *group {
			grouping = f
		}
	}
	if grouping == nil {
		log.Fatalf("sample sheet has no %q column", *group)
	}
	fmt.Fprintf(os.Stderr, "Grouping by %v.\n", grouping)

	counts, err := exprmat.NewCounts(table.GeneIDs, table.Meta, samples, table.Columns)
	if err != nil {
		log.Fatalf("invalid count table: %v", err)
	}
	lib := counts.LibSizes()

	cpm, err := exprmat.CPM(counts, lib)
	if err != nil {
		log.Fatalf("could not compute CPM: %v", err)
	}

	min := *minSamp
	if min == 0 {
		min = grouping.MinGroupSize()
	}
	filtered, err := exprmat.FilterByExpression(cpm, counts, *thresh, min)
	if err != nil {
		log.Fatalf("could not filter: %v", err)
	}
	kept, _ := filtered.Dims()
	total, _ := counts.Dims()
	fmt.Fprintf(os.Stderr, "Kept %d of %d genes with CPM > %v in at least %d samples.\n", kept, total, *thresh, min)

	var factor []float64
	switch *method {
	case "tmm":
		factor, err = norm.TMM(filtered.Data)
	case "rle":
		factor, err = norm.RelativeLog(filtered.Data)
	case "quantile":
		factor, err = norm.UpperQuartile(filtered.Data, 0.75)
	case "none":
		factor = make([]float64, len(lib))
		for i := range factor {
			factor[i] = 1
		}
	default:
		log.Fatalf("unknown normalisation method %q", *method)
	}
	if err != nil {
		log.Fatalf("could not compute normalisation factors: %v", err)
	}
	effLib := make([]float64, len(lib))
	for i, l := range lib {
		effLib[i] = l * factor[i]
	}
	for i, s := range samples {
		fmt.Fprintf(os.Stderr, "%s: library size %.0f, %s factor %.4f\n", s, lib[i], *method, factor[i])
	}

	rawLog, err := exprmat.LogCPM(filtered, lib, *prior)
	if err != nil {
		log.Fatalf("could not compute log-CPM: %v", err)
	}
	normLog, err := exprmat.LogCPM(filtered, effLib, *prior)
	if err != nil {
		log.Fatalf("could not compute normalised log-CPM: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0775); err != nil {
		log.Fatalf("could not create output directory: %v", err)
	}
	render := func(name string, fn func(string) error) {
		path := filepath.Join(*outDir, name)
		if err := fn(path); err != nil {
			log.Fatalf("could not render %s: %v", name, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s.\n", path)
	}

	render("libsize.png", func(path string) error {
		return plotLibSizes(samples, lib, path)
	})
	render("logcpm-raw.png", func(path string) error {
		return plotBoxes("Log-CPM, unnormalised", rawLog, path)
	})
	render("logcpm-norm.png", func(path string) error {
		return plotBoxes(fmt.Sprintf("Log-CPM, %s normalised", *method), normLog, path)
	})
	render("rle.png", func(path string) error {
		return plotRLE(normLog, path)
	})
	for _, f := range factors {
		f := f
		render(fmt.Sprintf("mds-%s.png", f.Name), func(path string) error {
			return plotMDS(normLog, f, *mdsTop, path)
		})
	}
	render("heatmap.png", func(path string) error {
		return plotHeatMap(normLog, *hmTop, path)
	})
	for s := range samples {
		s := s
		render(fmt.Sprintf("md-%s.png", samples[s]), func(path string) error {
			return plotMD(normLog, s, path)
		})
	}
}
