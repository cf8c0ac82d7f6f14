package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	calls int
	errs  []error
	resp  *ChatResponse
}

func (s *scriptedModel) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	return s.resp, nil
}

func TestNewGuardedModelRequiresInner(t *testing.T) {
	_, err := NewGuardedModel(nil)
	assert.Equal(t, ErrChatModelRequired, err)
}

func TestGuardedModelSuccessFirstAttempt(t *testing.T) {
	inner := &scriptedModel{resp: &ChatResponse{Content: `{}`}}
	g, err := NewGuardedModel(inner)
	require.NoError(t, err)

	resp, err := g.Complete(context.Background(), ChatRequest{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{}`, resp.Content)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardedModelRetriesTransient(t *testing.T) {
	inner := &scriptedModel{
		errs: []error{fmt.Errorf("throttled: %w", ErrRateLimited), ErrTransient},
		resp: &ChatResponse{Content: `{}`},
	}
	g, err := NewGuardedModel(inner, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))
	require.NoError(t, err)

	resp, err := g.Complete(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, 3, inner.calls)
}

func TestGuardedModelStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid api key")
	inner := &scriptedModel{errs: []error{permanent, permanent, permanent}}
	g, err := NewGuardedModel(inner, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), ChatRequest{})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardedModelExhaustsAttempts(t *testing.T) {
	inner := &scriptedModel{errs: []error{ErrTransient, ErrTransient, ErrTransient}}
	g, err := NewGuardedModel(inner, WithMaxAttempts(2), WithBaseDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 2, inner.calls)
}

func TestGuardedModelHonorsContextDuringBackoff(t *testing.T) {
	inner := &scriptedModel{errs: []error{ErrTransient, ErrTransient}}
	g, err := NewGuardedModel(inner, WithMaxAttempts(3), WithBaseDelay(time.Minute))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = g.Complete(ctx, ChatRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrRateLimited))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", ErrTransient)))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.False(t, IsTransient(nil))
}
