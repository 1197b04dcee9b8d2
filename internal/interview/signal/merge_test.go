package signal

import (
	"errors"
	"testing"

	"github.com/futig/interview-engine/internal/entity"
)

func TestCleanQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1. Tell me about yourself", "Tell me about yourself"},
		{"12.   Why Go?\\n", "Why Go?"},
		{"No ordinal here", "No ordinal here"},
		{"3.Not an ordinal without space", "3.Not an ordinal without space"},
		{"Trailing\\n in the middle\\n", "Trailing\\n in the middle"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanQuestion(tt.in); got != tt.want {
				t.Errorf("CleanQuestion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("question list is cleaned", func(t *testing.T) {
		u, err := Parse(entity.SignalTypeQuestion, `["1. First\\n", "2. Second"]`)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if u.Kind != KindQuestions || len(u.Questions) != 2 {
			t.Fatalf("unexpected update %+v", u)
		}
		if u.Questions[0] != "First" || u.Questions[1] != "Second" {
			t.Errorf("questions = %q", u.Questions)
		}
	})

	t.Run("feedback", func(t *testing.T) {
		u, err := Parse(entity.SignalTypeFeedback, `{"feedback":"Good structure"}`)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if u.Kind != KindFeedback || u.Feedback != "Good structure" {
			t.Errorf("unexpected update %+v", u)
		}
	})

	t.Run("unknown type is ignored", func(t *testing.T) {
		u, err := Parse("signal:chat", `garbage`)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if u.Kind != KindIgnored {
			t.Errorf("kind = %s, want ignored", u.Kind)
		}
	})

	t.Run("malformed payloads", func(t *testing.T) {
		for _, tc := range []struct{ typ, data string }{
			{entity.SignalTypeQuestion, `{"not":"a list"}`},
			{entity.SignalTypeQuestion, `[1, 2`},
			{entity.SignalTypeFeedback, `"just a string"`},
		} {
			if _, err := Parse(tc.typ, tc.data); !errors.Is(err, entity.ErrMalformedSignal) {
				t.Errorf("Parse(%s, %s) error = %v, want ErrMalformedSignal", tc.typ, tc.data, err)
			}
		}
	})
}

func records(questions ...string) []entity.QuestionRecord {
	out := make([]entity.QuestionRecord, 0, len(questions))
	for _, q := range questions {
		out = append(out, entity.NewQuestionRecord(q))
	}
	return out
}

func TestMergeQuestions_KeepsHistoryUpToCursor(t *testing.T) {
	current := records("q0", "q1", "q2", "q3", "q4")
	current[1].Answer = "answered"
	current[2].FaceScoreList = []int{40, 50}

	merged := MergeQuestions(current, 2, []string{"n0", "n1", "n2", "n3", "n4", "n5"})

	if len(merged) != 6 {
		t.Fatalf("len = %d, want 6", len(merged))
	}
	for i, want := range []string{"q0", "q1", "q2", "n3", "n4", "n5"} {
		if merged[i].Question != want {
			t.Errorf("merged[%d] = %q, want %q", i, merged[i].Question, want)
		}
	}
	if merged[1].Answer != "answered" || len(merged[2].FaceScoreList) != 2 {
		t.Error("history before the cursor was modified")
	}
	if merged[3].Answer != "" || merged[3].FaceScoreList == nil {
		t.Errorf("replaced record is not fresh: %+v", merged[3])
	}
}

func TestMergeQuestions_Truncates(t *testing.T) {
	merged := MergeQuestions(records("q0", "q1", "q2", "q3"), 1, []string{"n0", "n1", "n2"})

	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3", len(merged))
	}
	if merged[2].Question != "n2" {
		t.Errorf("merged[2] = %q, want n2", merged[2].Question)
	}

	shorter := MergeQuestions(records("q0", "q1", "q2", "q3"), 1, []string{"n0"})
	if len(shorter) != 2 {
		t.Errorf("len = %d, want records up to the cursor only", len(shorter))
	}
}

func TestMergeQuestions_FirstListFillsEmptySession(t *testing.T) {
	merged := MergeQuestions(nil, 0, []string{"a", "b", "c"})

	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3", len(merged))
	}
	if merged[0].Question != "a" {
		t.Errorf("merged[0] = %q, want a", merged[0].Question)
	}
}

func TestAssignFeedback_InOrder(t *testing.T) {
	recs := records("q0", "q1", "q2")
	state := &entity.SessionState{Stage: entity.StageWait, QuestionCursor: 2}

	for _, text := range []string{"f0", "", "f1", "f2"} {
		if err := AssignFeedback(recs, state, text); err != nil {
			t.Fatalf("AssignFeedback(%q): %v", text, err)
		}
	}

	for i, want := range []string{"f0", "f1", "f2"} {
		if recs[i].Feedback != want {
			t.Errorf("recs[%d].Feedback = %q, want %q", i, recs[i].Feedback, want)
		}
	}
	if state.FeedbackCursor != 3 {
		t.Errorf("feedback cursor = %d, want 3", state.FeedbackCursor)
	}
}

func TestAssignFeedback_DropsFeedbackAheadOfQuestions(t *testing.T) {
	recs := records("q0", "q1", "q2")
	state := &entity.SessionState{QuestionCursor: 0, FeedbackCursor: 1}

	err := AssignFeedback(recs, state, "too early")
	if !errors.Is(err, ErrFeedbackOutOfRange) {
		t.Fatalf("error = %v, want ErrFeedbackOutOfRange", err)
	}
	if state.FeedbackCursor != 1 || recs[1].Feedback != "" {
		t.Error("dropped feedback changed state")
	}

	state = &entity.SessionState{QuestionCursor: 3, FeedbackCursor: 3}
	if err := AssignFeedback(recs, state, "no record"); !errors.Is(err, entity.ErrMalformedSignal) {
		t.Errorf("error = %v, want ErrMalformedSignal", err)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindQuestions, "questions"},
		{KindFeedback, "feedback"},
		{KindIgnored, "ignored"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
