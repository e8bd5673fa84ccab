package units_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"netnuke/internal/units"
)

func TestHumanBytes(t *testing.T) {
	for _, tc := range []struct {
		in       uint64
		expected string
	}{
		{0, "0B"},
		{512, "512B"},
		{1023, "1023B"},
		{1024, "1.0K"},
		{1536, "1.5K"},
		{100 * 1024 * 1024, "100.0M"},
		{1024*1024 - 1, "1.0M"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.0T"},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, units.HumanBytes(tc.in))
		})
	}
}

func TestHumanRate(t *testing.T) {
	assert.Equal(t, "0B", units.HumanRate(0))
	assert.Equal(t, "0B", units.HumanRate(-5))
	assert.Equal(t, "0B", units.HumanRate(math.Inf(1)))
	assert.Equal(t, "10.0M", units.HumanRate(10*1024*1024))
}
