package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"moneytracker/internal/core"
)

// Page geometry in points.
const (
	pdfMargin     = 50.0
	pdfLineHeight = 16.0
	pdfRowHeight  = 18.0
	// a new page starts once the cursor passes pageHeight - pdfBreakOffset
	pdfBreakOffset = 80.0
)

// column widths: Date, Type, Category, Amount (fills the A4 text width)
var pdfColumns = [4]float64{90, 80, 200, 125.28}

// PDFDocument is everything printed on a report PDF.
type PDFDocument struct {
	Title     string
	User      core.User
	Report    core.Report
	Subtitles []string
	Locale    string
	// CreatedAt pins the document metadata date; zero means now.
	CreatedAt time.Time
}

// PDFFilename suggests a download name for a report.
func PDFFilename(r core.Report) string {
	return fmt.Sprintf("report_%s_%s_to_%s.pdf", r.Period, r.Range.Start, r.Range.End)
}

// RenderPDF lays the document out and writes it to w. A failing writer
// surfaces as core.ErrRenderFailure.
func RenderPDF(w io.Writer, doc PDFDocument) error {
	pdf, _ := layoutPDF(doc)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w: %w", core.ErrRenderFailure, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w: %w", core.ErrRenderFailure, err)
	}
	return nil
}

// layoutPDF builds the finalized-ready document and returns it with the
// number of movement rows drawn.
func layoutPDF(doc PDFDocument) (*fpdf.Fpdf, int) {
	l := LabelsFor(doc.Locale)
	report := doc.Report

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	// pagination is handled row by row below
	pdf.SetAutoPageBreak(false, 0)
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := doc.Title
	if title == "" {
		title = l.Title(report.Period)
	}
	pdf.SetTitle(title, true)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 24, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, pdfLineHeight,
		tr(fmt.Sprintf("%s: %s (%s)", l.User, doc.User.DisplayName(), doc.User.DisplayEmail())),
		"", 1, "L", false, 0, "")
	for _, s := range doc.Subtitles {
		pdf.CellFormat(0, pdfLineHeight, tr(s), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfLineHeight)

	// summary
	sum := report.Summary
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, pdfLineHeight+2, tr(l.Summary), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("%s: %s (%d %s)", l.Income, sum.Income.Total.Format(), sum.Income.Count, l.Movements),
		fmt.Sprintf("%s: %s (%d %s)", l.Expenses, sum.Expenses.Total.Format(), sum.Expenses.Count, l.Movements),
		fmt.Sprintf("%s: %s", l.Balance, sum.Balance.Format()),
	} {
		pdf.CellFormat(0, pdfLineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfLineHeight)

	if report.IsEmpty() {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, pdfLineHeight, tr(l.NoMovements), "", 1, "L", false, 0, "")
		return pdf, 0
	}

	_, pageHeight := pdf.GetPageSize()
	header := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		aligns := [4]string{"L", "L", "L", "R"}
		for i, name := range [4]string{l.ColDate, l.ColType, l.ColCategory, l.ColAmount} {
			ln := 0
			if i == len(aligns)-1 {
				ln = 1
			}
			pdf.CellFormat(pdfColumns[i], pdfRowHeight, tr(name), "B", ln, aligns[i], true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	rows := 0
	for _, m := range report.Movements {
		if pdf.GetY() > pageHeight-pdfBreakOffset {
			pdf.AddPage()
			header()
		}
		category := m.Category
		if category == "" {
			category = "-"
		}
		pdf.CellFormat(pdfColumns[0], pdfRowHeight, truncateDate(m.Date.String()), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumns[1], pdfRowHeight, tr(l.MovementType(m.Type)), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumns[2], pdfRowHeight, tr(fitText(pdf, category, pdfColumns[2])), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumns[3], pdfRowHeight, m.Amount.Signed(m.Type), "", 1, "R", false, 0, "")
		rows++
	}
	return pdf, rows
}

// truncateDate keeps the date-only portion of a date or timestamp string.
func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	const pad = 4
	if pdf.GetStringWidth(s) <= width-pad {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width-pad {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
