// Package report reduces finished question records into an interview report.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/futig/interview-engine/internal/entity"
)

// FaceScore is the floored mean of a score series, 0 for an empty series.
func FaceScore(series []int) int {
	if len(series) == 0 {
		return 0
	}

	sum := 0
	for _, v := range series {
		sum += v
	}

	// floor division, the series may hold negative scores
	q := sum / len(series)
	if sum%len(series) != 0 && sum < 0 {
		q--
	}
	return q
}

// Aggregate computes the report of a finished session.
func Aggregate(interviewID string, records []entity.QuestionRecord) (*entity.InterviewReport, error) {
	if len(records) == 0 {
		return nil, entity.ErrNoQuestions
	}

	var speechSum, faceSum int
	faceGraph := make([][]int, 0, len(records))
	speechGraph := make([]int, 0, len(records))

	for _, r := range records {
		speechSum += r.SpeechScore
		faceSum += r.FaceScore

		series := r.FaceScoreList
		if series == nil {
			series = []int{}
		}
		faceGraph = append(faceGraph, series)
		speechGraph = append(speechGraph, r.SpeechScore)
	}

	faceJSON, err := json.Marshal(faceGraph)
	if err != nil {
		return nil, fmt.Errorf("marshal face graph: %w", err)
	}
	speechJSON, err := json.Marshal(speechGraph)
	if err != nil {
		return nil, fmt.Errorf("marshal pronunciation graph: %w", err)
	}

	n := float64(len(records))

	return &entity.InterviewReport{
		InterviewID:        interviewID,
		PronunciationScore: float64(speechSum) / n,
		FaceScore:          float64(faceSum) / n,
		FaceGraph:          string(faceJSON),
		PronunciationGraph: string(speechJSON),
	}, nil
}
