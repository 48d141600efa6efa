package catalink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ErrChannelWriterClosed is returned when a channel writer is used after close.
var ErrChannelWriterClosed = errors.New("catalink: channel writer closed")

// Extract is what callback and channel writers hand to embedding code in
// place of a file on disk.
type Extract struct {
	Channel string
	Cycle   int64
	Path    string
	Format  string
	Dataset *Dataset
}

// ExtractFunc receives every extract a rule fires.
type ExtractFunc func(Extract) error

// NewCallbackWriter adapts fn into a Writer so callers can consume extracts
// without defining a type.
func NewCallbackWriter(name string, fn ExtractFunc) Writer {
	if name == "" {
		name = "callback"
	}
	return &callbackWriter{name: name, fn: fn}
}

// NewChannelWriter exposes extracts via a channel; it returns the writer,
// the read-only channel, and a close function to call during shutdown.
func NewChannelWriter(name string, buffer int) (Writer, <-chan Extract, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Extract, buffer)
	w := &channelWriter{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return w, ch, func() { w.close() }
}

type callbackWriter struct {
	name string
	fn   ExtractFunc
}

func (w *callbackWriter) Write(_ context.Context, p Producer, path string) error {
	if w.fn == nil {
		return fmt.Errorf("callback writer %q: nil handler", w.name)
	}
	ex, err := newExtract(p, path)
	if err != nil {
		return err
	}
	return w.fn(ex)
}

func (w *callbackWriter) Name() string { return w.name }

type channelWriter struct {
	name   string
	ch     chan Extract
	closed chan struct{}
	once   sync.Once
	mu     sync.RWMutex
}

func (w *channelWriter) Write(ctx context.Context, p Producer, path string) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	select {
	case <-w.closed:
		return ErrChannelWriterClosed
	default:
	}

	ex, err := newExtract(p, path)
	if err != nil {
		return err
	}

	select {
	case <-w.closed:
		return ErrChannelWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	case w.ch <- ex:
		return nil
	}
}

func (w *channelWriter) Name() string { return w.name }

func (w *channelWriter) close() {
	w.once.Do(func() {
		close(w.closed)
		// wait for in-flight sends to observe closed before closing ch
		w.mu.Lock()
		close(w.ch)
		w.mu.Unlock()
	})
}

func newExtract(p Producer, path string) (Extract, error) {
	if p == nil || p.Output().Empty() {
		return Extract{}, fmt.Errorf("extract %s: producer has no data", path)
	}
	ds := p.Output().Clone()
	channel := ds.Channel
	if channel == "" {
		channel = p.Name()
	}
	return Extract{
		Channel: channel,
		Cycle:   ds.Cycle,
		Path:    path,
		Format:  strings.TrimPrefix(filepath.Ext(path), "."),
		Dataset: ds,
	}, nil
}
