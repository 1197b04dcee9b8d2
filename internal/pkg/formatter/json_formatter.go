package formatter

import (
	"encoding/json"

	"github.com/futig/interview-engine/internal/entity"
)

const (
	jsonContentType   = "application/json"
	jsonFileExtension = ".json"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (jf *JSONFormatter) Format(report *entity.StoredReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func (jf *JSONFormatter) ContentType() string {
	return jsonContentType
}

func (jf *JSONFormatter) FileExtension() string {
	return jsonFileExtension
}
