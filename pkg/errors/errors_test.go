package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NotFound("appointment", nil)))
	assert.Equal(t, ErrBadRequest, CodeOf(BadRequest("bad", nil)))
	assert.Equal(t, ErrConflict, CodeOf(Conflict("dup", nil)))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrInternal, CodeOf(nil))
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("loading appointment: %w", NotFound("appointment", nil))
	assert.Equal(t, ErrNotFound, CodeOf(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("user", nil)
	assert.Equal(t, "user not found", err.Error())

	wrapped := BadRequest("invalid payload", stderrors.New("boom"))
	assert.Equal(t, "invalid payload: boom", wrapped.Error())
	assert.EqualError(t, stderrors.Unwrap(wrapped), "boom")
}
