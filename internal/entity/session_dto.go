package entity

type StartSessionRequest struct {
	SessionID      string `json:"session_id"`
	InterviewID    string `json:"interview_id,omitempty"`
	StatementID    string `json:"statement_id,omitempty"`
	QuestionsCount int    `json:"questions_count,omitempty"`
}

type SignalRequest struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Signal event types pushed by the remote backend
const (
	SignalTypeQuestion = "signal:question"
	SignalTypeFeedback = "signal:feedback"
)

// SignalEnvelope is a single message received on the signal channel
type SignalEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type FeedbackSignal struct {
	Feedback string `json:"feedback,omitempty"`
}

// Backend collaborator payloads

type AIQuestionsRequest struct {
	InterviewID string `json:"interviewId"`
	SessionID   string `json:"sessionId"`
	StatementID string `json:"statementId"`
	QuestionCnt int    `json:"questionCnt"`
}

type StopRecordingRequest struct {
	InterviewID string `json:"interviewId"`
	Question    string `json:"question"`
}

type AnswerTranscript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
