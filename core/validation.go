package core

import (
	"fmt"
	"time"
)

// ValidateKnowledgeItem checks that a KnowledgeItem satisfies domain invariants.
// Returns an error wrapping ErrInvalidKnowledgeItem if validation fails.
func ValidateKnowledgeItem(item *KnowledgeItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidKnowledgeItem)
	}
	if item.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidKnowledgeItem, ErrEmptyBody)
	}
	if item.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidKnowledgeItem, ErrEmptyTitle)
	}
	if item.SourceType != SourceTypeFAQ && item.SourceType != SourceTypeDocument {
		return fmt.Errorf("%w: %w (%d)", ErrInvalidKnowledgeItem, ErrInvalidSourceType, item.SourceType)
	}
	if !item.CreatedAt.IsZero() && item.CreatedAt.After(time.Now().Add(time.Minute)) {
		return fmt.Errorf("%w: created_at is in the future", ErrInvalidKnowledgeItem)
	}
	return nil
}

// ValidateSession checks that a Session satisfies domain invariants.
// Returns an error wrapping ErrInvalidSession if validation fails.
func ValidateSession(session *Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if session.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSession, ErrEmptySessionId)
	}
	if session.TurnCount < 0 {
		return fmt.Errorf("%w: turn count cannot be negative (%d)", ErrInvalidSession, session.TurnCount)
	}
	for i, turn := range session.History {
		if err := ValidateRole(turn.Role); err != nil {
			return fmt.Errorf("%w: history[%d]: %w", ErrInvalidSession, i, err)
		}
	}
	return nil
}

// ValidateRole checks that a Role has a known value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateSourceType checks that a SourceType has a known value.
func ValidateSourceType(st SourceType) error {
	if st != SourceTypeFAQ && st != SourceTypeDocument {
		return fmt.Errorf("%w: %d", ErrInvalidSourceType, st)
	}
	return nil
}
