package wipe

import "sync/atomic"

// SkipAbortSource опрашивается движком между записями блоков
type SkipAbortSource interface {
	// SkipRequested возвращает true один раз на каждый запрос пропуска
	SkipRequested() bool
	AbortRequested() bool
}

// Signals флаги пропуска устройства и прерывания запуска.
// Выставляются из горутины обработки сигналов ОС.
type Signals struct {
	skip  atomic.Bool
	abort atomic.Bool
}

// Skip просит пропустить текущее устройство
func (s *Signals) Skip() {
	s.skip.Store(true)
}

// Abort прерывает весь запуск. Флаг не сбрасывается.
func (s *Signals) Abort() {
	s.abort.Store(true)
}

func (s *Signals) SkipRequested() bool {
	return s.skip.CompareAndSwap(true, false)
}

func (s *Signals) AbortRequested() bool {
	return s.abort.Load()
}
