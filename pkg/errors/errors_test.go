package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := ErrInternalServer.WithInternal(stdErrors.New("boom"))
	assert.Equal(t, "Internal server error: boom", err.Error())
	assert.Nil(t, ErrInternalServer.Internal, "WithInternal must not mutate the shared value")
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("lookup: %w", ErrNotFound)
	assert.Same(t, ErrNotFound, FromError(wrapped))

	raw := stdErrors.New("raw")
	out := FromError(raw)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.ErrorIs(t, out, raw)
}
