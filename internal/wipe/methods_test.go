package wipe_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netnuke/internal/wipe"
)

func TestPatternSourceZero(t *testing.T) {
	buf := bytes.Repeat([]byte{0xFF}, 4096)

	wipe.NewPatternSource().Fill(buf, wipe.LevelZero)

	assert.Equal(t, make([]byte, 4096), buf)
}

func TestPatternSourceStaticPattern(t *testing.T) {
	buf := make([]byte, 64*1024)
	wipe.NewPatternSource().Fill(buf, wipe.LevelStaticPattern)

	seen := map[byte]int{}
	for _, b := range buf {
		seen[b]++
	}

	for b := range seen {
		assert.Contains(t, wipe.Palette[:], b)
	}

	// на 64K байт выпадают все значения палитры
	assert.Len(t, seen, len(wipe.Palette))
}

func TestPatternSourceRandomReseeds(t *testing.T) {
	src := wipe.NewPatternSource()

	for _, level := range []wipe.NukeLevel{wipe.LevelRandomFast, wipe.LevelRandomSlow} {
		a := make([]byte, 4096)
		b := make([]byte, 4096)

		src.Fill(a, level)
		src.Fill(b, level)

		require.NotEqual(t, make([]byte, 4096), a)
		assert.NotEqual(t, a, b, "level %s", level)
	}
}

func TestPaletteNibbles(t *testing.T) {
	for i, b := range wipe.Palette {
		assert.Equal(t, byte(0xA0+(i%6)*0x10), b&0xF0)
		assert.Equal(t, byte(i/6), b&0x0F)
	}
}

func TestRefillEachBlock(t *testing.T) {
	assert.True(t, wipe.RefillEachBlock(wipe.LevelRandomSlow))
	assert.False(t, wipe.RefillEachBlock(wipe.LevelRandomFast))
	assert.False(t, wipe.RefillEachBlock(wipe.LevelZero))
}
