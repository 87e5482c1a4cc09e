package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New(CodeWatchlistNotFound, "watchlist not found")
	assert.Equal(t, "[WTC_001] watchlist not found", e.Error())

	withDetail := e.WithDetail("id=abc")
	assert.Equal(t, "[WTC_001] watchlist not found: id=abc", withDetail.Error())
	// WithDetail must not mutate the receiver.
	assert.Empty(t, e.Detail)
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternal, "nope"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		wrapped := Wrap(cause, ErrCodeDatabaseError, "query failed")
		require.NotNil(t, wrapped)
		assert.Equal(t, ErrCodeDatabaseError, wrapped.Code)
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("CodeUnknown preserves inner code", func(t *testing.T) {
		inner := New(CodeAlertNotFound, "alert not found")
		outer := Wrap(inner, CodeUnknown, "while marking read")
		assert.Equal(t, CodeAlertNotFound, outer.Code)
	})
}

func TestIsCode(t *testing.T) {
	inner := New(CodeRuleNotFound, "rule not found")
	outer := fmt.Errorf("service: %w", inner)

	assert.True(t, IsCode(outer, CodeRuleNotFound))
	assert.False(t, IsCode(outer, CodeWatchlistNotFound))
	assert.False(t, IsCode(nil, CodeRuleNotFound))
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic not found", NotFound("x"), true},
		{"watchlist not found", New(CodeWatchlistNotFound, "x"), true},
		{"alert not found", New(CodeAlertNotFound, "x"), true},
		{"competitor not found", New(CodeCompetitorNotFound, "x"), true},
		{"validation", Validation("x"), false},
		{"plain error", stderrors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsNotFound(tc.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(TransientSource("feed down", nil)))
	assert.True(t, IsTransient(New(ErrCodeSourceTimeout, "poll timed out")))
	assert.True(t, IsTransient(fmt.Errorf("tick: %w", New(ErrCodeSourceRateLimited, "429"))))
	assert.False(t, IsTransient(New(CodeValidation, "bad criteria")))
	assert.False(t, IsTransient(Delivery("smtp refused", nil)))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("raw")))
	assert.Equal(t, ErrCodeDeliveryFailed, GetCode(Delivery("push failed", nil)))
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, 404, ErrCodeWatchlistNotFound.HTTPStatus())
	assert.Equal(t, 422, ErrCodeRuleConditionsEmpty.HTTPStatus())
	assert.Equal(t, 502, ErrCodeSourceUnavailable.HTTPStatus())
	assert.Equal(t, 500, ErrorCode("BOGUS_999").HTTPStatus())
}

func TestErrorCode_Module(t *testing.T) {
	assert.Equal(t, "WTC", ErrCodeWatchlistNotFound.Module())
	assert.Equal(t, "NTF", ErrCodeDeliveryFailed.Module())
	assert.Equal(t, "OK", CodeOK.Module())
}
