// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/digital-twin/internal/domain"
)

// ErrInvalidFeedback is returned when a feedback record fails validation.
var ErrInvalidFeedback = errors.New("invalid feedback")

// Repository defines the interface for persisting submitted feedback.
type Repository interface {
	// SaveFeedback stores a feedback record. ID and CreatedAt are filled in
	// when empty.
	SaveFeedback(ctx context.Context, fb *domain.Feedback) error

	// ListFeedback returns up to limit records, newest first.
	ListFeedback(ctx context.Context, limit int) ([]*domain.Feedback, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
