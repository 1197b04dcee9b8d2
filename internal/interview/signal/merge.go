// Package signal parses push-channel events and merges them into the
// question records of a running session.
package signal

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/futig/interview-engine/internal/entity"
)

type Kind int

const (
	KindIgnored Kind = iota
	KindQuestions
	KindFeedback
)

func (k Kind) String() string {
	switch k {
	case KindQuestions:
		return "questions"
	case KindFeedback:
		return "feedback"
	default:
		return "ignored"
	}
}

// Update is a parsed signal event.
type Update struct {
	Kind      Kind
	Questions []string
	Feedback  string
}

var (
	ordinalPrefix   = regexp.MustCompile(`^\d+\.\s+`)
	escapedNewlines = regexp.MustCompile(`\\n$`)
)

// CleanQuestion strips a leading "1. " ordinal and a trailing literal \n.
func CleanQuestion(q string) string {
	q = ordinalPrefix.ReplaceAllString(q, "")
	q = escapedNewlines.ReplaceAllString(q, "")
	return q
}

// Parse decodes the data of one signal event. Unknown event types yield a
// KindIgnored update; undecodable payloads wrap entity.ErrMalformedSignal.
func Parse(eventType, data string) (Update, error) {
	switch eventType {
	case entity.SignalTypeQuestion:
		var list []string
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			return Update{}, fmt.Errorf("%w: question list: %v", entity.ErrMalformedSignal, err)
		}
		for i := range list {
			list[i] = CleanQuestion(list[i])
		}
		return Update{Kind: KindQuestions, Questions: list}, nil

	case entity.SignalTypeFeedback:
		var payload entity.FeedbackSignal
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return Update{}, fmt.Errorf("%w: feedback: %v", entity.ErrMalformedSignal, err)
		}
		return Update{Kind: KindFeedback, Feedback: payload.Feedback}, nil

	default:
		return Update{Kind: KindIgnored}, nil
	}
}

// MergeQuestions keeps records 0..cursor untouched and replaces everything
// after the cursor with fresh records built from list[cursor+1:]. Positions
// up to the cursor that have no record yet are filled from list.
func MergeQuestions(records []entity.QuestionRecord, cursor int, list []string) []entity.QuestionRecord {
	if cursor < 0 {
		cursor = 0
	}

	merged := make([]entity.QuestionRecord, 0, max(cursor+1, len(list)))
	for i := 0; i <= cursor; i++ {
		switch {
		case i < len(records):
			merged = append(merged, records[i])
		case i < len(list):
			merged = append(merged, entity.NewQuestionRecord(list[i]))
		}
	}

	for i := cursor + 1; i < len(list); i++ {
		merged = append(merged, entity.NewQuestionRecord(list[i]))
	}

	return merged
}

var ErrFeedbackOutOfRange = fmt.Errorf("%w: feedback cursor out of range", entity.ErrMalformedSignal)

// AssignFeedback writes text into the record at the feedback cursor and
// advances it. Empty text is ignored. Feedback is dropped when the cursor
// has no record yet or would run ahead of the question being asked, so
// feedbackCursor never exceeds questionCursor+1.
func AssignFeedback(records []entity.QuestionRecord, state *entity.SessionState, text string) error {
	if text == "" {
		return nil
	}

	fc := state.FeedbackCursor
	if fc >= len(records) || fc > state.QuestionCursor {
		return fmt.Errorf("%w: feedback cursor %d, question cursor %d, %d records",
			ErrFeedbackOutOfRange, fc, state.QuestionCursor, len(records))
	}

	records[fc].Feedback = text
	state.FeedbackCursor++

	return nil
}
