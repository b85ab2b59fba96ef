package fault

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := NotFound("fetch graph", "https://example.org/id/1", io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrMalformedInput)
	assert.Equal(t, "fetch graph: resource not found (https://example.org/id/1): unexpected EOF", err.Error())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", NotFound("op", "", nil), ErrResourceNotFound},
		{"malformed wrapped", fmt.Errorf("outer: %w", Malformed("op", "u", nil)), ErrMalformedInput},
		{"conversion", Conversion("op", errors.New("bad ring")), ErrConversion},
		{"precondition", Precondition("render", "layer is not bound"), ErrPrecondition},
		{"unclassified", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
