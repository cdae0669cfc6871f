// Package embed turns article text into dense vectors.
package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/deusflow/headlines/internal/logger"
)

// ErrUnavailable wraps every failure to obtain an encoder.
var ErrUnavailable = errors.New("embedding encoder unavailable")

// Encoder maps texts to vectors, one per text, in input order.
type Encoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader builds the real encoder. It runs at most once per successful load.
type Loader func(ctx context.Context) (Encoder, error)

// Lazy defers loading the encoder until first use and shares it afterwards.
// Concurrent first callers block on the one in-flight load. A failed load is
// not remembered, so the next request tries again.
type Lazy struct {
	mu    sync.Mutex
	load  Loader
	enc   atomic.Pointer[Encoder]
	loads int
}

func NewLazy(load Loader) *Lazy {
	return &Lazy{load: load}
}

// Get returns the loaded encoder, loading it if needed.
func (l *Lazy) Get(ctx context.Context) (Encoder, error) {
	if e := l.enc.Load(); e != nil {
		return *e, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e := l.enc.Load(); e != nil {
		return *e, nil
	}

	l.loads++
	logger.Info("loading embedding encoder", "attempt", l.loads)
	enc, err := l.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: loader returned nil", ErrUnavailable)
	}
	l.enc.Store(&enc)
	return enc, nil
}

// Loaded reports whether the encoder has been initialised.
func (l *Lazy) Loaded() bool {
	return l.enc.Load() != nil
}

func (l *Lazy) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	enc, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return enc.EncodeBatch(ctx, texts)
}

func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("encoder returned %d vectors for %d texts", got, want)
	}
	return nil
}
