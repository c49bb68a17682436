package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/heatmap"
)

const topFeatures = 5

func runShow(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stdout)
	in := fs.String("in", "", "explanation file (.json or .born)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("show: -in is required")
	}

	exp, err := readExplanation(*in)
	if err != nil {
		return err
	}
	printExplanation(stdout, exp, nil)
	return nil
}

// printExplanation writes a summary line plus one block per instance. labels
// may be nil.
func printExplanation(w io.Writer, exp *explain.Explanation, labels []int) {
	p := exp.Meta.Params
	fmt.Fprintf(w, "%s: method=%s n_steps=%d", exp.Meta.Name, p.Method, p.NSteps)
	if p.Layer != "" {
		fmt.Fprintf(w, " layer=%s", p.Layer)
	}
	fmt.Fprintf(w, " instances=%d\n", exp.Len())

	attrs := exp.Data.Attributions
	sums := exp.Sums()
	for i := range exp.Len() {
		fmt.Fprintf(w, "\n[%d] target=%d", i, exp.Data.Target[i])
		if labels != nil {
			fmt.Fprintf(w, " label=%d", labels[i])
		}
		fmt.Fprintf(w, " sum=%+.4f delta=%+.2e\n", sums[i], exp.Data.Deltas[i])

		values := attrs.Instance(i)
		if h, wd, ok := plane(attrs.Shape); ok {
			m := collapse(values, h*wd)
			if x, xh, xw, ok := inputPlane(exp.Data.X, i); ok && xh == h && xw == wd {
				fmt.Fprint(w, heatmap.SideBySide(heatmap.Intensity(x, xh, xw), heatmap.Render(m, h, wd), 2))
			} else {
				fmt.Fprint(w, heatmap.Render(m, h, wd))
			}
			continue
		}

		var sb strings.Builder
		for _, j := range heatmap.TopK(values, topFeatures) {
			fmt.Fprintf(&sb, "  feature %d: %+.4f\n", j, values[j])
		}
		fmt.Fprint(w, sb.String())
	}
}

// plane returns the spatial size of a [n, c, h, w] or [n, h, w] shape.
func plane(shape []int) (h, w int, ok bool) {
	switch len(shape) {
	case 3:
		return shape[1], shape[2], true
	case 4:
		return shape[2], shape[3], true
	}
	return 0, 0, false
}

// collapse sums channel planes of size n into one.
func collapse(values []float64, n int) []float64 {
	out := make([]float64, n)
	for j, v := range values {
		out[j%n] += v
	}
	return out
}

func inputPlane(x explain.Array, i int) (values []float64, h, w int, ok bool) {
	h, w, ok = plane(x.Shape)
	if !ok {
		return nil, 0, 0, false
	}
	return collapse(x.Instance(i), h*w), h, w, true
}
