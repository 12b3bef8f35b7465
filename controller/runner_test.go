package controller

import (
	"context"
	"testing"
	"time"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedProcessor blocks every frame until the test releases it.
type gatedProcessor struct {
	started chan int
	release chan struct{}
}

func newGatedProcessor() *gatedProcessor {
	return &gatedProcessor{
		started: make(chan int, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedProcessor) Process(ctx context.Context, frame Frame) (*Result, error) {
	g.started <- frame.ID
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if frame.ID < 0 {
		return nil, errors.Wrap(common.ErrShapeMismatch, "bad frame")
	}
	return &Result{FrameID: frame.ID}, nil
}

func receive(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for runner")
		return 0
	}
}

func TestRunner_KeepsLatest(t *testing.T) {
	p := newGatedProcessor()
	results := make(chan int, 16)
	r := NewRunner(p, ConsumerFunc(func(res *Result) { results <- res.FrameID }), nil)
	defer r.Close()

	require.True(t, r.Submit(Frame{ID: 1}))
	require.Equal(t, 1, receive(t, p.started))

	// Frame 2 is superseded by frame 3 while frame 1 is in flight.
	require.True(t, r.Submit(Frame{ID: 2}))
	require.True(t, r.Submit(Frame{ID: 3}))

	p.release <- struct{}{}
	assert.Equal(t, 1, receive(t, results))

	assert.Equal(t, 3, receive(t, p.started))
	p.release <- struct{}{}
	assert.Equal(t, 3, receive(t, results))

	processed, failed, dropped := r.Stats()
	assert.Equal(t, uint64(2), processed)
	assert.Equal(t, uint64(0), failed)
	assert.Equal(t, uint64(1), dropped)
}

func TestRunner_SkipsFailedFrames(t *testing.T) {
	p := newGatedProcessor()
	results := make(chan int, 16)
	r := NewRunner(p, ConsumerFunc(func(res *Result) { results <- res.FrameID }), nil)
	defer r.Close()

	require.True(t, r.Submit(Frame{ID: -1}))
	require.Equal(t, -1, receive(t, p.started))
	p.release <- struct{}{}

	require.Eventually(t, func() bool {
		_, failed, _ := r.Stats()
		return failed == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.True(t, r.Submit(Frame{ID: 5}))
	require.Equal(t, 5, receive(t, p.started))
	p.release <- struct{}{}
	assert.Equal(t, 5, receive(t, results))
}

func TestRunner_Disabled(t *testing.T) {
	p := newGatedProcessor()
	r := NewRunner(p, nil, nil)
	defer r.Close()

	r.SetEnabled(false)
	assert.False(t, r.Enabled())
	assert.False(t, r.Submit(Frame{ID: 1}))

	r.SetEnabled(true)
	assert.True(t, r.Submit(Frame{ID: 2}))
	assert.Equal(t, 2, receive(t, p.started))
	p.release <- struct{}{}
}

func TestRunner_Close(t *testing.T) {
	p := newGatedProcessor()
	r := NewRunner(p, nil, nil)

	require.True(t, r.Submit(Frame{ID: 1}))
	require.Equal(t, 1, receive(t, p.started))

	// Close cancels the frame in flight and waits for the loop to exit.
	r.Close()
	r.Close()
	assert.False(t, r.Submit(Frame{ID: 2}))
}
