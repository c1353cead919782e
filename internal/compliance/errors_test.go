package compliance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	id := uuid.New()
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", &NotFoundError{Kind: KindReturn, ID: id}, ErrNotFound},
		{"conflict", &ConflictError{Kind: KindPayment, ID: id, Reason: "version mismatch"}, ErrConflict},
		{"validation", InvalidStatus(KindNotice, "CLOSED"), ErrValidation},
		{"persistence", &PersistenceError{Op: "update payment", Err: cause}, ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.True(t, IsTyped(wrapped))
			for _, other := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrPersistence} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestPersistence(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence("apply return", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)

	conflict := &ConflictError{Kind: KindReturn, ID: uuid.New(), Reason: "modified concurrently"}
	assert.Same(t, conflict, Persistence("apply return", conflict), "typed errors pass through")
	assert.Nil(t, Persistence("apply return", nil))
}

func TestValidationErrorMessage(t *testing.T) {
	err := InvalidStatus(KindNotice, "CLOSED")
	assert.Contains(t, err.Error(), `notice: status "CLOSED"`)
	assert.Contains(t, err.Error(), "RECEIVED, IN_PROGRESS, REPLIED")
}
