// Package units форматирует размеры для строки прогресса.
package units

import (
	"fmt"
	"math"
)

const suffixes = "BKMGTPE"

// HumanBytes возвращает компактное представление размера: "512B", "1.5K", "100.0M".
// Значение масштабируется до единицы, в которой оно попадает в [1, 1024).
func HumanBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}

	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(suffixes)-1 {
		value /= 1024
		unit++
	}

	// 1023.96K округлилось бы до "1024.0K"
	if math.Round(value*10)/10 >= 1024 && unit < len(suffixes)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f%c", value, suffixes[unit])
}

// HumanRate форматирует скорость в байтах в секунду без суффикса "/s".
func HumanRate(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 || math.IsNaN(bytesPerSecond) || math.IsInf(bytesPerSecond, 0) {
		return HumanBytes(0)
	}

	return HumanBytes(uint64(bytesPerSecond))
}
