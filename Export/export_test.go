package Export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/font"
)

func sampleReport(rows int) Checklist.Report {
	completed := time.Date(2024, time.May, 2, 15, 4, 0, 0, time.UTC)
	r := Checklist.Report{
		SessionID:   uuid.New(),
		Responsible: "Ana Souza",
		Shift:       Models.ShiftNight,
		ShiftLabel:  Models.ShiftNight.Label(),
		Area:        Models.AreaStamping,
		Context:     Models.ContextLabels{Area: "Stamping", ProductionLine: "Press Line 1", Operation: "10 - Blanking"},
		CompletedAt: &completed,
	}
	statuses := make([]Models.Status, rows)
	for i := 0; i < rows; i++ {
		row := Checklist.ReportRow{
			Number:      i + 1,
			Text:        fmt.Sprintf("Is inspection point %d in order and free of visible defects or leaks?", i+1),
			Status:      Models.StatusOK,
			StatusLabel: "OK",
		}
		if i%4 == 1 {
			row.Status, row.StatusLabel, row.Justification = Models.StatusNOK, "NOK", "Guard cracked on the left side"
		}
		r.Rows = append(r.Rows, row)
		statuses[i] = row.Status
	}
	r.Stats = Checklist.Aggregate(statuses)
	return r
}

func TestPlanSinglePage(t *testing.T) {
	slices, scale := Plan(1600, 1000)
	require.Len(t, slices, 1)
	assert.Equal(t, Slice{Top: 0, Bottom: 1000}, slices[0])
	assert.InDelta(t, 190.0/1600, scale, 1e-9)
}

func TestPlanContiguousSlices(t *testing.T) {
	// 190mm / 1600px => 2332.6 rows per 277mm page.
	height := 6000
	slices, scale := Plan(1600, height)

	require.Len(t, slices, 3)
	assert.Equal(t, 0, slices[0].Top)
	assert.Equal(t, height, slices[len(slices)-1].Bottom)
	for i := 1; i < len(slices); i++ {
		assert.Equal(t, slices[i-1].Bottom, slices[i].Top, "slice %d must start where %d ended", i, i-1)
	}
	for _, s := range slices[:len(slices)-1] {
		assert.InDelta(t, ContentHeight, s.HeightMM(scale), scale)
	}
	assert.Less(t, slices[2].HeightMM(scale), ContentHeight)
}

func TestPlanEmpty(t *testing.T) {
	slices, _ := Plan(0, 10)
	assert.Empty(t, slices)
}

func TestRasterizeScalesToDensity(t *testing.T) {
	img, err := Rasterize(sampleReport(3))
	require.NoError(t, err)
	assert.Equal(t, baseWidth*PixelDensity, img.Bounds().Dx())
	assert.Zero(t, img.Bounds().Dy()%PixelDensity)
}

func TestPDFMultiPage(t *testing.T) {
	report := sampleReport(120)
	now := time.Date(2024, time.May, 3, 9, 0, 0, 0, time.UTC)

	doc, err := PDF(report, now)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, doc.Pages, 2)
	assert.Equal(t, "checklist-Night-2024-05-03.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))

	raster, err := Rasterize(report)
	require.NoError(t, err)
	pages, slices, _ := Paginate(raster)
	require.Len(t, pages, doc.Pages)
	total := 0
	for i, p := range pages {
		assert.Equal(t, slices[i].Bottom-slices[i].Top, p.Bounds().Dy())
		total += p.Bounds().Dy()
	}
	assert.Equal(t, raster.Bounds().Dy(), total)
}

func TestPDFSinglePage(t *testing.T) {
	doc, err := PDF(sampleReport(2), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
}

func TestWrap(t *testing.T) {
	face, err := newFace()
	require.NoError(t, err)
	defer face.Close()

	width := font.MeasureString(face, "one two").Ceil()
	assert.Equal(t, []string{"one two", "three"}, wrap(face, "one two three", width))
	assert.Equal(t, []string{""}, wrap(face, "   ", width))

	word := "ãéíõüçñ"
	narrow := font.MeasureString(face, "ãé").Ceil()
	pieces := wrap(face, word, narrow)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.True(t, utf8.ValidString(p), p)
		assert.LessOrEqual(t, font.MeasureString(face, p).Ceil(), narrow)
	}
	assert.Equal(t, word, strings.Join(pieces, ""))

	// A single glyph wider than the line still makes progress.
	assert.Equal(t, []string{"W", "W"}, wrap(face, "WW", 1))
}

func TestRasterizeAccentedText(t *testing.T) {
	face, err := newFace()
	require.NoError(t, err)
	defer face.Close()
	for _, r := range "ãçéêíóõúÁÇÉÕ" {
		_, ok := face.GlyphAdvance(r)
		assert.True(t, ok, "missing glyph %q", r)
	}

	report := sampleReport(2)
	report.Responsible = "João Conceição"
	report.Rows[1].Justification = strings.Repeat("Proteção lateral solta, região da prensa danificada. ", 6)

	lines := layout(face, report)
	for _, l := range lines {
		assert.True(t, utf8.ValidString(l.text), l.text)
		assert.LessOrEqual(t, l.indent+font.MeasureString(face, l.text).Ceil(), baseWidth-2*padding)
	}

	img, err := Rasterize(report)
	require.NoError(t, err)
	assert.Equal(t, baseWidth*PixelDensity, img.Bounds().Dx())

	// Accents are drawn as themselves.
	a, b := sampleReport(2), sampleReport(2)
	a.Rows[1].Justification = "Proteção não está fixada"
	b.Rows[1].Justification = "Proteçõo nõo estõ fixada"
	imgA, err := Rasterize(a)
	require.NoError(t, err)
	imgB, err := Rasterize(b)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(imgA.Pix, imgB.Pix), "different justifications rasterize to identical pixels")
}

func TestRasterizeRejectsOversizedReport(t *testing.T) {
	_, err := Rasterize(sampleReport(1000))
	assert.ErrorIs(t, err, ErrReportTooLarge)

	_, err = PDF(sampleReport(1000), time.Now())
	assert.ErrorIs(t, err, ErrReportTooLarge)
}

func TestHistoryWorkbook(t *testing.T) {
	reports := []Checklist.Report{sampleReport(4), sampleReport(8)}

	buf, err := HistoryWorkbook(reports)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Completed At", rows[0][0])
	assert.Equal(t, "Night", rows[1][1])
	assert.Equal(t, "Ana Souza", rows[1][5])
	assert.Equal(t, "4", rows[1][6])
	assert.Equal(t, reports[1].SessionID.String(), rows[2][13])
	assert.Equal(t, []string{historySheet}, f.GetSheetList())
}
