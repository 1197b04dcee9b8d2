package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/interview-engine/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(report *entity.StoredReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)

	for _, row := range summary(report) {
		fmt.Fprintf(&buf, "- **%s:** %s\n", row[0], row[1])
	}

	for i, q := range report.Questions {
		fmt.Fprintf(&buf, "\n## %d. %s\n\n", i+1, q.Question)
		fmt.Fprintf(&buf, "**Answer:** %s\n\n", orDash(q.Answer))
		fmt.Fprintf(&buf, "**Feedback:** %s\n\n", orDash(q.Feedback))
		fmt.Fprintf(&buf, "| Speech score | Face score | Samples |\n|---|---|---|\n| %d | %d | %d |\n",
			q.SpeechScore, q.FaceScore, len(q.FaceScoreList))
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
