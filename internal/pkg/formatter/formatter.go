package formatter

import (
	"fmt"

	"github.com/futig/interview-engine/internal/entity"
)

const baseTitle = "Interview report"

type Formatter interface {
	Format(report *entity.StoredReport) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatJSON:
		return NewJSONFormatter(), nil
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// summary is the header block shared by the text formats.
func summary(report *entity.StoredReport) [][2]string {
	return [][2]string{
		{"Interview", report.Report.InterviewID},
		{"Session", report.SessionID},
		{"Date", report.CreatedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Pronunciation score", fmt.Sprintf("%.1f", report.Report.PronunciationScore)},
		{"Face score", fmt.Sprintf("%.1f", report.Report.FaceScore)},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
