package controller

import (
	"context"
	"sync"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Processor turns a frame into a result. *Pipeline implements it.
type Processor interface {
	Process(ctx context.Context, frame Frame) (*Result, error)
}

// Consumer receives the result of every successfully processed frame.
type Consumer interface {
	Consume(result *Result)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(result *Result)

// Consume calls f(result).
func (f ConsumerFunc) Consume(result *Result) {
	f(result)
}

// Runner delivers frames to a Processor one at a time, keeping only the
// latest: a frame submitted while another is pending replaces it. Frames that
// fail are logged and skipped.
type Runner struct {
	processor Processor
	consumer  Consumer
	log       *logrus.Entry

	mu      sync.Mutex
	pending *Frame
	wake    chan struct{}

	enabled   *atomic.Bool
	closed    *atomic.Bool
	dropped   *atomic.Uint64
	failed    *atomic.Uint64
	processed *atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner starts a runner. It is enabled on return.
func NewRunner(processor Processor, consumer Consumer, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		processor: processor,
		consumer:  consumer,
		log:       log.WithField("component", "runner"),
		wake:      make(chan struct{}, 1),
		enabled:   atomic.NewBool(true),
		closed:    atomic.NewBool(false),
		dropped:   atomic.NewUint64(0),
		failed:    atomic.NewUint64(0),
		processed: atomic.NewUint64(0),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go r.loop(ctx)
	return r
}

// Submit hands a frame to the runner and reports whether it was accepted.
// Frames are refused while the runner is disabled or closed.
func (r *Runner) Submit(frame Frame) bool {
	if r.closed.Load() || !r.enabled.Load() {
		return false
	}

	r.mu.Lock()
	if r.pending != nil {
		r.dropped.Inc()
	}
	r.pending = &frame
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// SetEnabled turns analysis on or off. Disabling discards any pending frame.
func (r *Runner) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
	if enabled {
		return
	}

	r.mu.Lock()
	if r.pending != nil {
		r.dropped.Inc()
		r.pending = nil
	}
	r.mu.Unlock()
}

// Enabled reports whether analysis is on.
func (r *Runner) Enabled() bool {
	return r.enabled.Load()
}

// Stats returns how many frames were processed, failed and dropped unseen.
func (r *Runner) Stats() (processed, failed, dropped uint64) {
	return r.processed.Load(), r.failed.Load(), r.dropped.Load()
}

// Close stops the runner and waits for the frame in flight to finish.
func (r *Runner) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}

		r.mu.Lock()
		frame := r.pending
		r.pending = nil
		r.mu.Unlock()

		if frame == nil || !r.enabled.Load() {
			continue
		}

		result, err := r.processor.Process(ctx, *frame)
		if err != nil {
			r.failed.Inc()
			entry := r.log.WithError(err).WithField("frame", frame.ID)
			if common.IsFrameError(err) {
				entry.Warn("frame skipped")
			} else {
				entry.Error("frame failed")
			}
			continue
		}

		r.processed.Inc()
		if r.consumer != nil {
			r.consumer.Consume(result)
		}
	}
}
