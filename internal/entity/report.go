package entity

import "time"

type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatPDF:
		return true
	default:
		return false
	}
}

// InterviewReport is the immutable outcome of a finished session
type InterviewReport struct {
	InterviewID        string  `json:"interviewId"`
	PronunciationScore float64 `json:"pronunciationScore"`
	FaceScore          float64 `json:"faceScore"`
	FaceGraph          string  `json:"faceGraph"`
	PronunciationGraph string  `json:"pronunciationGraph"`
}

// StoredReport is a report together with the session it was produced by
type StoredReport struct {
	SessionID string           `json:"session_id"`
	Report    InterviewReport  `json:"report"`
	Questions []QuestionRecord `json:"questions"`
	CreatedAt time.Time        `json:"created_at"`
}

// ReportFile is a report rendered for download
type ReportFile struct {
	Data        []byte
	ContentType string
	FileName    string
}
