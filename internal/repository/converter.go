package repository

import (
	"encoding/json"
	"fmt"

	"github.com/futig/interview-engine/internal/entity"
)

// questionRow is the JSONB layout of one answered question.
type questionRow struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Feedback    string `json:"feedback"`
	FaceScores  []int  `json:"face_scores"`
	FaceScore   int    `json:"face_score"`
	SpeechScore int    `json:"speech_score"`
}

func toQuestionRows(records []entity.QuestionRecord) []questionRow {
	rows := make([]questionRow, 0, len(records))
	for _, rec := range records {
		scores := rec.FaceScoreList
		if scores == nil {
			scores = []int{}
		}
		rows = append(rows, questionRow{
			Question:    rec.Question,
			Answer:      rec.Answer,
			Feedback:    rec.Feedback,
			FaceScores:  scores,
			FaceScore:   rec.FaceScore,
			SpeechScore: rec.SpeechScore,
		})
	}
	return rows
}

func fromQuestionRows(data []byte) ([]entity.QuestionRecord, error) {
	var rows []questionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}

	records := make([]entity.QuestionRecord, 0, len(rows))
	for _, row := range rows {
		scores := row.FaceScores
		if scores == nil {
			scores = []int{}
		}
		records = append(records, entity.QuestionRecord{
			Question:      row.Question,
			Answer:        row.Answer,
			Feedback:      row.Feedback,
			FaceScoreList: scores,
			FaceScore:     row.FaceScore,
			SpeechScore:   row.SpeechScore,
		})
	}
	return records, nil
}
