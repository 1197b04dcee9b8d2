package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// In Docker runtime fonts are copied to /app/ttf.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath looks for DejaVuSans next to the binary, then in the
// source tree.
func resolveFontPath() string {
	if _, err := os.Stat(pdfFontRuntimePath); err == nil {
		return pdfFontRuntimePath
	}

	if _, err := os.Stat(pdfFontSourcePath); err == nil {
		return pdfFontSourcePath
	}

	return ""
}

func (pf *PDFFormatter) Format(report *entity.StoredReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	fontName := "Arial"
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, baseTitle)
	pdf.Ln(14)

	pdf.SetFont(fontName, "", 12)
	for _, row := range summary(report) {
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(50, 7, row[0], "", 0, "", false, 0, "")
		pdf.SetFont(fontName, "", 12)
		pdf.CellFormat(0, 7, row[1], "", 1, "", false, 0, "")
	}

	for i, q := range report.Questions {
		pdf.Ln(6)
		pdf.SetFont(fontName, "B", 14)
		pdf.MultiCell(0, 7, fmt.Sprintf("%d. %s", i+1, q.Question), "", "", false)

		pdf.SetFont(fontName, "", 11)
		_, lineHeight := pdf.GetFontSize()
		pdf.MultiCell(0, lineHeight*1.5, "Answer: "+orDash(q.Answer), "", "", false)
		pdf.MultiCell(0, lineHeight*1.5, "Feedback: "+orDash(q.Feedback), "", "", false)
		pdf.MultiCell(0, lineHeight*1.5,
			fmt.Sprintf("Speech score: %d   Face score: %d   Samples: %d", q.SpeechScore, q.FaceScore, len(q.FaceScoreList)),
			"", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
