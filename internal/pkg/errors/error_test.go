package xerrors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", New("quantity must be at least 1").Mark(ErrValidation), http.StatusBadRequest},
		{"policy", New("pattern not offered").Mark(ErrPolicy), http.StatusUnprocessableEntity},
		{"conflict through wrap", Wrap(New("already skipped").Mark(ErrConflict), "skip delivery"), http.StatusConflict},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unavailable", New("redis down").Mark(ErrUnavailable), http.StatusServiceUnavailable},
		{"unmarked", New("boom").WithMessage("ctx").err, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHints(t *testing.T) {
	err := New("start date too early").
		WithHintf("earliest start date is %s", "2026-10-20").
		Mark(ErrValidation)

	assert.True(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrConflict))
	assert.Equal(t, []string{"earliest start date is 2026-10-20"}, Hints(err))
	assert.Nil(t, Wrap(nil, "noop"))
}
