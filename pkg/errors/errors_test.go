package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/kinmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "contact",
			ID:       "bob",
		}
		assert.Equal(t, "contact with ID bob not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("contact", "test")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "concurrency",
			Message: "must be positive",
		}
		assert.Equal(t, "validation failed for field concurrency: must be positive", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestUnknownContactError(t *testing.T) {
	err := pkgerrors.NewUnknownContactError("u-1")
	assert.Contains(t, err.Error(), "u-1")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.False(t, pkgerrors.IsValidationError(err))
}

func TestSelfLoopError(t *testing.T) {
	err := pkgerrors.NewSelfLoopError("u-1", "friend")
	assert.Equal(t, "self-loop rejected: u-1 cannot be friend of itself", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestMalformedKeyError(t *testing.T) {
	err := pkgerrors.NewMalformedKeyError("RELATED[2]", "name:Bob", "missing relationship type")
	assert.Contains(t, err.Error(), "RELATED[2]")
	assert.Contains(t, err.Error(), "name:Bob")
	assert.True(t, pkgerrors.IsMalformedKey(err))
	assert.True(t, pkgerrors.IsMalformedKey(fmt.Errorf("decode: %w", err)))
}

func TestUnresolvedTargetError(t *testing.T) {
	err := pkgerrors.NewUnresolvedTargetError("john", "parent", "name:Nobody")
	assert.Equal(t, "contact john: parent target name:Nobody does not resolve", err.Error())
	assert.True(t, pkgerrors.IsUnresolved(err))
}

func TestRevisionConflictError(t *testing.T) {
	t.Run("single attempt", func(t *testing.T) {
		err := pkgerrors.NewRevisionConflictError("john", 3, 4)
		assert.Equal(t, "revision conflict for john: read 3, now 4", err.Error())
		assert.True(t, pkgerrors.IsRevisionConflict(err))
	})

	t.Run("after retries", func(t *testing.T) {
		err := pkgerrors.NewRevisionConflictError("john", 3, 5)
		err.Attempts = 2
		assert.Contains(t, err.Error(), "after 2 attempts")
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("vault", "path cannot be empty", nil)
	assert.Contains(t, err.Error(), "vault")
	assert.Contains(t, err.Error(), "cannot be empty")

	base := errors.New("bad yaml")
	wrapped := pkgerrors.NewConfigError("config", "unreadable", base)
	assert.Equal(t, base, wrapped.Unwrap())
}

func TestIOError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.IOError{
			Operation: "read",
			Path:      "/tmp/john.md",
			Message:   "permission denied",
		}
		assert.Contains(t, err.Error(), "read")
		assert.Contains(t, err.Error(), "/tmp/john.md")
	})

	t.Run("wrap helper", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.WrapIO("write", "/vault/bob.md", baseErr)
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "write", ioErr.Operation)
		assert.Equal(t, baseErr, ioErr.Unwrap())
		assert.Nil(t, pkgerrors.WrapIO("read", "file", nil))
	})
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("reconcile", "contact", "john", pkgerrors.ErrAlreadyExists)
	resErr, ok := err.(*pkgerrors.ResourceError)
	require.True(t, ok)
	assert.Equal(t, "reconcile", resErr.Operation)
	assert.Contains(t, err.Error(), "failed to reconcile contact john")
	assert.True(t, pkgerrors.IsAlreadyExists(err))
	assert.Nil(t, pkgerrors.WrapResource("read", "contact", "x", nil))
}

func TestParseError(t *testing.T) {
	t.Run("with position", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "yaml",
			File:    "john.md",
			Line:    3,
			Column:  1,
			Message: "unexpected key",
		}
		assert.Equal(t, "parse error in yaml at john.md:3:1: unexpected key", err.Error())
	})

	t.Run("without file", func(t *testing.T) {
		err := pkgerrors.WrapParse("yaml", "", errors.New("bad indent"))
		assert.Equal(t, "yaml parse error: bad indent", err.Error())
		assert.Nil(t, pkgerrors.WrapParse("yaml", "x", nil))
	})
}
