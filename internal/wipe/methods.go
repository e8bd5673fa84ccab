package wipe

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// Palette байты статического паттерна: старший полубайт A..F, младший 0..3
var Palette = [24]byte{
	0xA0, 0xB0, 0xC0, 0xD0, 0xE0, 0xF0,
	0xA1, 0xB1, 0xC1, 0xD1, 0xE1, 0xF1,
	0xA2, 0xB2, 0xC2, 0xD2, 0xE2, 0xF2,
	0xA3, 0xB3, 0xC3, 0xD3, 0xE3, 0xF3,
}

// Filler заполняет буфер данными для уровня затирания
type Filler interface {
	Fill(buf []byte, level NukeLevel)
}

// PatternSource генератор данных для записи.
// Каждый вызов Fill заново сидирует генератор от текущего времени.
type PatternSource struct {
	now     func() time.Time
	counter atomic.Uint64
}

// NewPatternSource создаёт источник на системных часах
func NewPatternSource() *PatternSource {
	return &PatternSource{now: time.Now}
}

func (p *PatternSource) seed() int64 {
	now := time.Now
	if p.now != nil {
		now = p.now
	}

	t := now().UnixNano()

	// два вызова в одну наносекунду не должны дать одинаковый буфер
	return t*t/3 + int64(p.counter.Add(1))*6201985
}

// Fill заполняет buf целиком
func (p *PatternSource) Fill(buf []byte, level NukeLevel) {
	if len(buf) == 0 {
		return
	}

	switch level {
	case LevelZero:
		clear(buf)
	case LevelStaticPattern:
		rnd := rand.New(rand.NewSource(p.seed()))
		for i := range buf {
			buf[i] = Palette[rnd.Intn(len(Palette))]
		}
	default:
		FillRandom(buf, rand.New(rand.NewSource(p.seed())))
	}
}

// RefillEachBlock true, если буфер обновляется перед каждой записью
func RefillEachBlock(level NukeLevel) bool {
	return level == LevelRandomSlow
}
