package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/viant/lookalike/session"
)

// DefaultCell is the thumbnail edge length in pixels.
const DefaultCell = 160

var (
	background  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	placeholder = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
)

// Sheet renders a two-row contact sheet: the query face on the first row and
// the ranked neighbors, in order, on the second.
type Sheet struct {
	W io.Writer
	// Cell is the thumbnail edge length; zero means DefaultCell.
	Cell int
	// Format is an image extension such as "png" or "jpg"; empty means png.
	Format string
}

// Render implements session.Renderer.
func (s *Sheet) Render(_ context.Context, p *session.Presentation) error {
	format := imaging.PNG
	if s.Format != "" {
		var err error
		if format, err = imaging.FormatFromExtension(s.Format); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	if err := imaging.Encode(s.W, Compose(p, s.Cell), format); err != nil {
		return fmt.Errorf("render: encode sheet: %w", err)
	}
	return nil
}

// Compose builds the contact sheet image. Missing crops are drawn as gray
// placeholders.
func Compose(p *session.Presentation, cell int) *image.NRGBA {
	if cell <= 0 {
		cell = DefaultCell
	}
	cols := max(1, len(p.Result.Neighbors))
	sheet := imaging.New(cols*cell, 2*cell, background)
	sheet = imaging.Paste(sheet, thumbnail(p.QueryImage, cell), image.Pt(0, 0))
	for i, n := range p.Result.Neighbors {
		sheet = imaging.Paste(sheet, thumbnail(p.Images[n.ID], cell), image.Pt(i*cell, cell))
	}
	return sheet
}

func thumbnail(img image.Image, cell int) image.Image {
	if img == nil || img.Bounds().Empty() {
		return imaging.New(cell, cell, placeholder)
	}
	return imaging.Fill(img, cell, cell, imaging.Center, imaging.Lanczos)
}
