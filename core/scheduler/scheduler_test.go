package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("", func(context.Context) error { return nil }, nil)
	assert.ErrorIs(t, err, ErrEmptySchedule)

	_, err = New("every tuesday", func(context.Context) error { return nil }, nil)
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestScheduler_Runs(t *testing.T) {
	var calls atomic.Int32
	s, err := New("@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("upstream down")
	}, nil)
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Next().IsZero())

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_SkipsOverlap(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	s, err := New("@every 1h", func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.tick()
	}()
	<-started

	s.tick()
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, s.Stop(context.Background()))
	<-done
}

func TestScheduler_StopCancelsJob(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	var cancelled atomic.Bool
	s, err := New("@every 1s", func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}, nil)
	require.NoError(t, err)

	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}
