package Export

import (
	"bytes"
	"fmt"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

type Document struct {
	Filename string
	Bytes    []byte
	Pages    int
}

// Filename is checklist-<shift>-<YYYY-MM-DD>.pdf for the given day.
func Filename(shift Models.Shift, day time.Time) string {
	return fmt.Sprintf("checklist-%s-%s.pdf", shift.Label(), day.Format("2006-01-02"))
}

// PDF rasterizes the report and lays the raster out over as many A4 pages
// as its height needs. Any failure discards the whole document.
func PDF(report Checklist.Report, now time.Time) (*Document, error) {
	raster, err := Rasterize(report)
	if err != nil {
		return nil, fmt.Errorf("rasterizing report: %w", err)
	}

	pages, slices, scale := Paginate(raster)
	if len(pages) == 0 {
		return nil, fmt.Errorf("report produced no pages")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.SetTitle(fmt.Sprintf("Checklist %s", report.ShiftLabel), true)
	pdf.SetCreator("ShiftAudit", true)
	pdf.SetCreationDate(now)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, page := range pages {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.ImageOptions(name, Margin, Margin, ContentWidth, slices[i].HeightMM(scale), false, opts, 0, "")
		if pdf.Err() {
			return nil, fmt.Errorf("assembling page %d: %w", i+1, pdf.Error())
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return &Document{
		Filename: Filename(report.Shift, now),
		Bytes:    out.Bytes(),
		Pages:    len(pages),
	}, nil
}
