package wipe

import (
	"io"
	"sync"
	"time"
)

// ThrottledWriter ограничивает скорость записи в цель (thread-safe)
type ThrottledWriter struct {
	target       Target
	maxSpeedMBps float64
	lastWrite    time.Time
	sleep        func(time.Duration)
	mu           sync.Mutex
	closed       bool
}

// NewThrottledWriter создает новый throttled writer
func NewThrottledWriter(target Target, maxSpeedMBps float64) *ThrottledWriter {
	return &ThrottledWriter{
		target:       target,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
		sleep:        time.Sleep,
	}
}

// Write записывает данные с ограничением скорости
func (tw *ThrottledWriter) Write(data []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}

	if len(data) == 0 {
		return 0, nil
	}

	if tw.maxSpeedMBps > 0 {
		bytesPerSec := tw.maxSpeedMBps * 1024 * 1024
		expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
		actual := time.Since(tw.lastWrite)
		if actual < expected {
			tw.sleep(expected - actual)
		}
	}

	n, err := tw.target.Write(data)
	tw.lastWrite = time.Now()
	return n, err
}

// Seek позиционирует цель
func (tw *ThrottledWriter) Seek(offset int64, whence int) (int64, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}

	return tw.target.Seek(offset, whence)
}

// Close закрывает цель
func (tw *ThrottledWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}

	tw.closed = true
	return tw.target.Close()
}
