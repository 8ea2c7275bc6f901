// Package report draws training curves.
package report

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series is one curve, indexed by epoch.
type Series struct {
	Name   string
	Values []float64
}

var palette = []color.RGBA{
	{R: 255, A: 255},
	{G: 160, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 160, A: 255},
	{R: 160, B: 160, A: 255},
	{G: 160, B: 160, A: 255},
}

// SaveCurves plots every series against its epoch index and writes the image
// to path; the format follows the extension (png, svg, pdf, ...).
func SaveCurves(path, title, yLabel string, series ...Series) error {
	if len(series) == 0 {
		return errors.New("no series to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epochs"
	p.Y.Label.Text = yLabel

	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		points := make(plotter.XYs, 0, len(s.Values))
		for epoch, v := range s.Values {
			points = append(points, plotter.XY{X: float64(epoch), Y: v})
		}
		c := palette[i%len(palette)]

		line, err := plotter.NewLine(points)
		if err != nil {
			return err
		}
		line.LineStyle.Color = c
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Radius = vg.Length(2)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Color = c
		p.Add(line, scatter)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
