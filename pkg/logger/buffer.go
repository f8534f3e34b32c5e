package logger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

const defaultBufferCapacity = 1000

// RingBuffer keeps the most recent log lines. Once full, each new line
// replaces the oldest one.
type RingBuffer struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &RingBuffer{lines: make([]string, capacity)}
}

func (b *RingBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.next] = line
	b.next++
	if b.next == len(b.lines) {
		b.next = 0
		b.full = true
	}
}

// GetLast returns up to n lines, oldest first. n <= 0 returns every line.
func (b *RingBuffer) GetLast(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := b.sizeLocked()
	if n <= 0 || n > size {
		n = size
	}

	out := make([]string, 0, n)
	start := b.next - n
	if start < 0 {
		out = append(out, b.lines[len(b.lines)+start:]...)
		start = 0
	}
	return append(out, b.lines[start:b.next]...)
}

func (b *RingBuffer) Capacity() int {
	return len(b.lines)
}

func (b *RingBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sizeLocked()
}

func (b *RingBuffer) sizeLocked() int {
	if b.full {
		return len(b.lines)
	}
	return b.next
}

// Write stores one rendered record per call, as slog handlers emit them.
func (b *RingBuffer) Write(p []byte) (int, error) {
	b.Append(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// teeHandler sends every record to the primary handler and renders a text
// copy into the ring buffer.
type teeHandler struct {
	primary slog.Handler
	recent  slog.Handler
}

func newTeeHandler(primary slog.Handler, buffer *RingBuffer, opts *slog.HandlerOptions) slog.Handler {
	return &teeHandler{
		primary: primary,
		recent:  slog.NewTextHandler(buffer, opts),
	}
}

func (h *teeHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.primary.Enabled(ctx, lvl)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	recentErr := h.recent.Handle(ctx, r.Clone())
	return errors.Join(h.primary.Handle(ctx, r), recentErr)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{primary: h.primary.WithAttrs(attrs), recent: h.recent.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{primary: h.primary.WithGroup(name), recent: h.recent.WithGroup(name)}
}
