// Package chart renders dashboard series with gonum/plot: time series as a
// line chart, group aggregates as a bar chart and k-means assignments as a
// scatter plot. Output is PNG or SVG written to any io.Writer.
package chart

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/stats"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Default canvas size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Options controls labels, size and output format. Zero values pick the
// defaults: 6×4 inches, PNG.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
	Format string
}

func (o Options) withDefaults() (Options, error) {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	o.Format = strings.ToLower(o.Format)
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Format != FormatPNG && o.Format != FormatSVG {
		return o, errors.NewInvalidParameterError("format", "must be 'png' or 'svg'", o.Format)
	}
	return o, nil
}

// FormatFromPath returns the output format implied by a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatPNG, FormatSVG:
		return ext, nil
	default:
		return "", errors.NewInvalidParameterError("path", "chart file must end in .png or .svg", path)
	}
}

// TimeSeries draws buckets as a line with point markers; the x axis shows
// bucket start dates.
func TimeSeries(w io.Writer, buckets []stats.Bucket, opts Options) error {
	if len(buckets) == 0 {
		return errors.NewInsufficientDataError("chart.TimeSeries", 1, 0)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	p := newPlot(opts)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	pts := make(plotter.XYs, len(buckets))
	for i, b := range buckets {
		pts[i] = plotter.XY{X: float64(b.Start.Unix()), Y: b.Value}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "time series line")
	}
	line.Color = plotutil.Color(0)
	points.Color = plotutil.Color(0)
	points.Shape = draw.CircleGlyph{}
	p.Add(plotter.NewGrid(), line, points)

	return render(w, p, opts)
}

// Groups draws one bar per aggregate in the given order, labelled by key.
func Groups(w io.Writer, aggs []stats.GroupAggregate, opts Options) error {
	if len(aggs) == 0 {
		return errors.NewInsufficientDataError("chart.Groups", 1, 0)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	p := newPlot(opts)
	values := make(plotter.Values, len(aggs))
	names := make([]string, len(aggs))
	for i, a := range aggs {
		values[i] = a.Value
		names[i] = a.Key
	}
	width := opts.Width / vg.Length(2*len(aggs)+2)
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return errors.Wrap(err, "group bars")
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)

	return render(w, p, opts)
}

// Clusters scatters the first two columns of X, one colour per label.
// centroids, when non-nil, are drawn as crosses over the points.
func Clusters(w io.Writer, X mat.Matrix, labels []int, centroids mat.Matrix, opts Options) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.NewInsufficientDataError("chart.Clusters", 1, 0)
	}
	if c < 2 {
		return errors.NewDimensionError("chart.Clusters", 2, c, 1)
	}
	if len(labels) != r {
		return errors.NewDimensionError("chart.Clusters", r, len(labels), 0)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	p := newPlot(opts)
	p.Add(plotter.NewGrid())

	groups := make(map[int]plotter.XYs)
	maxLabel := 0
	for i, l := range labels {
		if l < 0 {
			return errors.NewInvalidParameterError("labels", "cluster labels must be non-negative", l)
		}
		groups[l] = append(groups[l], plotter.XY{X: X.At(i, 0), Y: X.At(i, 1)})
		maxLabel = max(maxLabel, l)
	}
	for k := 0; k <= maxLabel; k++ {
		pts, ok := groups[k]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "cluster %d", k)
		}
		s.Color = plotutil.Color(k)
		s.Shape = plotutil.Shape(k)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", k), s)
	}

	if centroids != nil {
		kr, kc := centroids.Dims()
		if kc < 2 {
			return errors.NewDimensionError("chart.Clusters", 2, kc, 1)
		}
		pts := make(plotter.XYs, kr)
		for i := range pts {
			pts[i] = plotter.XY{X: centroids.At(i, 0), Y: centroids.At(i, 1)}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(err, "centroids")
		}
		s.Shape = draw.CrossGlyph{}
		s.Radius = vg.Points(5)
		p.Add(s)
		p.Legend.Add("centroid", s)
	}

	return render(w, p, opts)
}

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	return p
}

func render(w io.Writer, p *plot.Plot, opts Options) error {
	var canvas vg.CanvasWriterTo
	switch opts.Format {
	case FormatSVG:
		canvas = vgsvg.New(opts.Width, opts.Height)
	default:
		canvas = vgimg.PngCanvas{Canvas: vgimg.New(opts.Width, opts.Height)}
	}
	p.Draw(draw.New(canvas))
	if _, err := canvas.WriteTo(w); err != nil {
		return errors.Wrapf(err, "write %s chart", opts.Format)
	}
	return nil
}
