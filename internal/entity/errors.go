package entity

import "errors"

// Domain errors
var (
	// Session lifecycle errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExists        = errors.New("session already running")
	ErrBootstrapFailed      = errors.New("session bootstrap failed")
	ErrSessionFinished      = errors.New("session is already finished")
	ErrTransitionInProgress = errors.New("stage transition in progress")
	ErrSessionClosed        = errors.New("session control loop is closed")
	ErrFinalizeFailed       = errors.New("session finalization failed")
	ErrNoQuestions          = errors.New("session has no questions")
	ErrReportNotFound       = errors.New("report not found")
	ErrRecordingFailed      = errors.New("answer recording failed")

	// Face analysis errors
	ErrNoFrame          = errors.New("no video frame available")
	ErrModelsNotLoaded  = errors.New("detection models are not loaded")
	ErrWorkerTerminated = errors.New("analysis worker terminated")

	// Signal errors
	ErrMalformedSignal = errors.New("malformed signal payload")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
