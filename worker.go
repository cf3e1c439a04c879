package xlbind

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Worker runs conversions per workbook slot with last-request-wins
// semantics: starting a request cancels the one in flight for the same slot,
// and the older request returns ErrSuperseded instead of its result.
type Worker struct {
	mu     sync.Mutex
	slots  map[string]*slot
	opts   []Option
	logger *zap.Logger
}

type slot struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewWorker creates a Worker. The options are passed to every conversion.
func NewWorker(opts ...Option) *Worker {
	return &Worker{
		slots:  make(map[string]*slot),
		opts:   opts,
		logger: buildOptions(opts).logger,
	}
}

// begin registers a new request for key and cancels the previous one.
func (w *Worker) begin(ctx context.Context, key string) (context.Context, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.slots[key]
	if !ok {
		s = &slot{}
		w.slots[key] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	ctx, s.cancel = context.WithCancel(ctx)
	return ctx, s.seq
}

// finish reports whether seq is still the latest request for key.
func (w *Worker) finish(key string, seq uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.slots[key]
	if s == nil || s.seq != seq {
		return false
	}
	s.cancel()
	delete(w.slots, key)
	return true
}

// Run executes fn for the given slot. fn should honour ctx; if it does not,
// its result is still discarded once a newer request has started. A panic in
// fn is returned as an error.
func Run[T any](ctx context.Context, w *Worker, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	runCtx, seq := w.begin(ctx, key)

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("conversion panicked", zap.String("slot", key), zap.Any("panic", r))
				done <- outcome{err: fmt.Errorf("conversion panicked: %v", r)}
			}
		}()
		v, err := fn(runCtx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		if !w.finish(key, seq) {
			w.logger.Debug("conversion result discarded", zap.String("slot", key))
			return zero, ErrSuperseded
		}
		return out.val, out.err
	case <-runCtx.Done():
		if w.finish(key, seq) {
			// The caller's own context ended.
			return zero, ctx.Err()
		}
		w.logger.Debug("conversion superseded", zap.String("slot", key))
		return zero, ErrSuperseded
	}
}

// Import converts an xlsx stream for the slot. r is read to the end before
// the conversion starts, so it is never touched after Import returns.
func (w *Worker) Import(ctx context.Context, key string, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return Run(ctx, w, key, func(ctx context.Context) (*ImportResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Import(bytes.NewReader(data), w.opts...)
	})
}

// Export converts a workbook to xlsx bytes for the slot.
func (w *Worker) Export(ctx context.Context, key string, book *Workbook) ([]byte, error) {
	return Run(ctx, w, key, func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := Export(book, &buf, w.opts...); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
