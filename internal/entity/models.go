package entity

import (
	"fmt"
	"time"
)

// Stage represents the current phase of the interview session workflow
type Stage string

const (
	StageStart    Stage = "Start"    // Session bootstrapped, waiting for the first question
	StageWait     Stage = "Wait"     // Between questions
	StageQuestion Stage = "Question" // Question prompt is being asked
	StageAnswer   Stage = "Answer"   // Answer window is open, sampler and countdown running
	StageEnd      Stage = "End"      // All questions answered, waiting for finalization
)

func (s Stage) Validate() error {
	switch s {
	case StageStart, StageWait, StageQuestion, StageAnswer, StageEnd:
		return nil
	default:
		return fmt.Errorf("unknown stage: %s", s)
	}
}

type TimerState string

const (
	TimerIdle      TimerState = "IDLE"
	TimerRunning   TimerState = "RUNNING"
	TimerExpired   TimerState = "EXPIRED"
	TimerCancelled TimerState = "CANCELLED"
)

// QuestionRecord is the accumulated state of one interview question
type QuestionRecord struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Feedback      string `json:"feedback"`
	FaceScoreList []int  `json:"faceScoreList"`
	FaceScore     int    `json:"faceScore"`
	SpeechScore   int    `json:"speechScore"`
}

func NewQuestionRecord(question string) QuestionRecord {
	return QuestionRecord{
		Question:      question,
		FaceScoreList: []int{},
	}
}

// Clone returns a deep copy so readers outside the control loop never share the score slice
func (q QuestionRecord) Clone() QuestionRecord {
	q.FaceScoreList = append([]int{}, q.FaceScoreList...)
	return q
}

type SessionState struct {
	Stage          Stage `json:"stage"`
	QuestionCursor int   `json:"question_cursor"`
	FeedbackCursor int   `json:"feedback_cursor"`
}

type Emotion struct {
	Label       string  `json:"expression"`
	Probability float64 `json:"probability"`
}

// AnalysisResult is the outcome of analysing one frame. Both fields are nil when no face was detected.
type AnalysisResult struct {
	Score   *int     `json:"score"`
	Emotion *Emotion `json:"emotion"`
}

func (r AnalysisResult) Detected() bool {
	return r.Score != nil && r.Emotion != nil
}

// Frame is a still image captured from the candidate's video
type Frame struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Snapshot is a consistent read model of one interview session
type Snapshot struct {
	SessionID       string           `json:"session_id"`
	InterviewID     string           `json:"interview_id"`
	StatementID     string           `json:"statement_id,omitempty"`
	State           SessionState     `json:"state"`
	CurrentQuestion string           `json:"current_question"`
	Questions       []QuestionRecord `json:"questions"`
	LastEmotion     *Emotion         `json:"last_emotion,omitempty"`
	LastScore       int              `json:"last_score"`
	SampleCount     int              `json:"sample_count"`
	Timer           TimerState       `json:"timer_state"`
	RemainingTime   int              `json:"remaining_time"`
	RecordingID     string           `json:"recording_id,omitempty"`
	Finished        bool             `json:"finished"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Expressions maps an expression label (happy, sad, ...) to its detected probability
type Expressions map[string]float64
