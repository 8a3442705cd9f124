package Export

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// A4 portrait, in millimetres.
const (
	PageWidth     = 210.0
	PageHeight    = 297.0
	Margin        = 10.0
	ContentWidth  = PageWidth - 2*Margin
	ContentHeight = PageHeight - 2*Margin
)

// Slice is a band of raster rows [Top, Bottom) placed on one page.
type Slice struct {
	Top    int
	Bottom int
}

// HeightMM is the printed height of the slice at the given scale.
func (s Slice) HeightMM(scale float64) float64 {
	return float64(s.Bottom-s.Top) * scale
}

// Plan maps a width x height raster onto A4 pages. scale is millimetres per
// pixel so the raster fills the content width. Each slice starts where the
// previous one ended, so rows are neither repeated nor skipped.
func Plan(width, height int) (slices []Slice, scale float64) {
	if width <= 0 || height <= 0 {
		return nil, 0
	}
	scale = ContentWidth / float64(width)
	rowsPerPage := ContentHeight / scale

	pages := int(math.Ceil(float64(height) / rowsPerPage))
	slices = make([]Slice, 0, pages)
	edge := func(i int) int {
		return int(math.Min(math.Round(float64(i)*rowsPerPage), float64(height)))
	}
	for i := 0; i < pages; i++ {
		s := Slice{Top: edge(i), Bottom: edge(i + 1)}
		if s.Bottom > s.Top {
			slices = append(slices, s)
		}
	}
	return slices, scale
}

// Paginate cuts img into the page bands returned by Plan.
func Paginate(img image.Image) ([]*image.NRGBA, []Slice, float64) {
	b := img.Bounds()
	slices, scale := Plan(b.Dx(), b.Dy())
	pages := make([]*image.NRGBA, len(slices))
	for i, s := range slices {
		pages[i] = imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y+s.Top, b.Max.X, b.Min.Y+s.Bottom))
	}
	return pages, slices, scale
}
