package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("item %d not found", 42)

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, "item 42 not found", err.Error())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, CodeInternal, "list items")

	assert.Equal(t, "list items: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Cause())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, Is(wrapped, ErrInternal))
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"limit": "must be less than or equal to 100"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"limit": "must be less than or equal to 100"}, detailed.Details)
	assert.Equal(t, http.StatusBadRequest, detailed.HTTPStatus())
}
