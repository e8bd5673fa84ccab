package wipe

import (
	"math/rand"
	"sync"
)

// blockClasses размеры буферов, кратные размеру сектора.
// Буфер класса переживает понижение размера блока: пишется его префикс.
var blockClasses = [...]int{SafeBlockSize, 4096, 64 * 1024, 1024 * 1024, 16 * 1024 * 1024}

// BlockBufferPool пулы буферов записи по классам размера блока
type BlockBufferPool struct {
	classes [len(blockClasses)]sync.Pool
}

// NewBlockBufferPool создает пул
func NewBlockBufferPool() *BlockBufferPool {
	bp := &BlockBufferPool{}

	for i, size := range blockClasses {
		bp.classes[i].New = func() interface{} {
			return make([]byte, size)
		}
	}

	return bp
}

var blockBuffers = NewBlockBufferPool()

// GetBuffer буфер под блок size байт
func GetBuffer(size int) []byte {
	if size <= 0 || size > MaxBlockSize {
		return nil
	}

	return blockBuffers.Get(size)
}

// PutBuffer возвращает буфер в пул
func PutBuffer(buf []byte) {
	blockBuffers.Put(buf)
}

// Get буфер длины size; блоки больше старшего класса не кэшируются
func (bp *BlockBufferPool) Get(size int) []byte {
	idx := classFor(size)
	if idx < 0 {
		return make([]byte, size)
	}

	buf := bp.classes[idx].Get().([]byte)

	return buf[:size]
}

// Put возвращает буфер его классу. Содержимое затирается: в пуле не остаются случайные данные прошлого прохода.
func (bp *BlockBufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	buf = buf[:cap(buf)]

	idx := classFor(len(buf))
	if idx < 0 || blockClasses[idx] != len(buf) {
		return
	}

	clear(buf)
	bp.classes[idx].Put(buf) //nolint:staticcheck
}

func classFor(size int) int {
	for i, class := range blockClasses {
		if size <= class {
			return i
		}
	}

	return -1
}

// FillRandom заполняет буфер псевдослучайными данными из rnd
func FillRandom(buf []byte, rnd *rand.Rand) {
	if len(buf) == 0 {
		return
	}

	// (*rand.Rand).Read всегда заполняет буфер целиком и не возвращает ошибку
	_, _ = rnd.Read(buf)
}
