// Package Export turns checklist reports into downloadable documents.
package Export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	baseWidth  = 800
	padding    = 24
	lineHeight = 18
	fontSize   = 13
	indentPx   = 24
	// PixelDensity is the upscale factor applied to the drawn report.
	PixelDensity = 2
	// maxRasterHeight caps the drawn height before upscaling.
	maxRasterHeight = 10000
)

// ErrReportTooLarge is returned when a report would not fit in one raster.
var ErrReportTooLarge = errors.New("report too large to render")

var (
	ink     = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	muted   = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	okInk   = color.RGBA{0x15, 0x80, 0x3d, 0xff}
	nokInk  = color.RGBA{0xb9, 0x1c, 0x1c, 0xff}
	ruleInk = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}

	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

// newFace returns a fresh face over the embedded Go font. Faces keep glyph
// caches and must not be shared between goroutines.
func newFace() (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("parsing font: %w", fontErr)
	}
	return opentype.NewFace(goFont, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

type textLine struct {
	text   string
	col    color.Color
	indent int
	rule   bool
}

func statusInk(s Models.Status) color.Color {
	switch s {
	case Models.StatusOK:
		return okInk
	case Models.StatusNOK:
		return nokInk
	}
	return muted
}

func fits(face font.Face, s string, width int) bool {
	return font.MeasureString(face, s).Ceil() <= width
}

// splitRunes cuts a word too wide for one line into pieces of at most width
// pixels. Every piece holds at least one rune.
func splitRunes(face font.Face, word string, width int) []string {
	var out []string
	runes := []rune(word)
	for len(runes) > 0 {
		n := 1
		for n < len(runes) && fits(face, string(runes[:n+1]), width) {
			n++
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// wrap breaks s into lines no wider than width pixels, on word boundaries
// where possible.
func wrap(face font.Face, s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		if !fits(face, w, width) {
			if cur != "" {
				lines = append(lines, cur)
			}
			pieces := splitRunes(face, w, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			continue
		}
		if cur == "" {
			cur = w
			continue
		}
		if next := cur + " " + w; fits(face, next, width) {
			cur = next
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

func layout(face font.Face, r Checklist.Report) []textLine {
	var lines []textLine
	add := func(text string, col color.Color, indent int) {
		for _, l := range wrap(face, text, baseWidth-2*padding-indent) {
			lines = append(lines, textLine{text: l, col: col, indent: indent})
		}
	}
	rule := func() { lines = append(lines, textLine{rule: true}) }

	add("SHIFT CHECKLIST REPORT", ink, 0)
	rule()
	add("Responsible: "+r.Responsible, ink, 0)
	add(fmt.Sprintf("Shift: %s (%s)", r.ShiftLabel, r.Shift.Hours()), ink, 0)
	add("Area: "+r.Context.Area, ink, 0)
	if r.Context.ProductionLine != "" {
		add("Production line: "+r.Context.ProductionLine, ink, 0)
	}
	if r.Context.Operation != "" {
		add("Operation: "+r.Context.Operation, ink, 0)
	}
	if r.CompletedAt != nil {
		add("Completed: "+r.CompletedAt.Format("2006-01-02 15:04"), ink, 0)
	}
	rule()

	st := r.Stats
	add(fmt.Sprintf("Total: %d   OK: %d (%d%%)   NOK: %d (%d%%)   N/A: %d (%d%%)",
		st.Total, st.OK, st.OKPercent, st.NOK, st.NOKPercent, st.NA, st.NAPercent), ink, 0)
	rule()

	for _, row := range r.Rows {
		add(fmt.Sprintf("%d. %s", row.Number, row.Text), ink, 0)
		add("Status: "+row.StatusLabel, statusInk(row.Status), indentPx)
		if row.Justification != "" {
			add("Justification: "+row.Justification, muted, indentPx)
		}
		rule()
	}
	return lines
}

// Rasterize draws the report once and upscales it to PixelDensity.
func Rasterize(r Checklist.Report) (*image.NRGBA, error) {
	face, err := newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	lines := layout(face, r)
	height := 2*padding + len(lines)*lineHeight
	if height > maxRasterHeight {
		return nil, fmt.Errorf("%w: %d lines", ErrReportTooLarge, len(lines))
	}

	canvas := imaging.New(baseWidth, height, color.White)
	d := &font.Drawer{Dst: canvas, Face: face}
	ascent := face.Metrics().Ascent.Ceil()

	for i, l := range lines {
		top := padding + i*lineHeight
		if l.rule {
			y := top + lineHeight/2
			for x := padding; x < baseWidth-padding; x++ {
				canvas.Set(x, y, ruleInk)
			}
			continue
		}
		d.Src = image.NewUniform(l.col)
		d.Dot = fixed.P(padding+l.indent, top+ascent)
		d.DrawString(l.text)
	}

	return imaging.Resize(canvas, baseWidth*PixelDensity, height*PixelDensity, imaging.NearestNeighbor), nil
}
