package conversation

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrEmptyQuestion is returned when a turn begins with an empty question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrTurnFinished is returned when a turn is completed or aborted twice.
	ErrTurnFinished = errors.New("turn already finished")
)
