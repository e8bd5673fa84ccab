package wipe

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultBlockSize размер блока по умолчанию
	DefaultBlockSize = 512
	// SafeBlockSize размер, до которого понижается блок при EINVAL
	SafeBlockSize = 512
	// DefaultTestSize размер scratch-файла в тестовом режиме
	DefaultTestSize = 100 * 1024 * 1024
	// MaxTestSize верхняя граница scratch-файла
	MaxTestSize = 1024 * 1024 * 1024
	// DefaultRetainer как часто (в блоках) отдавать прогресс
	DefaultRetainer = 256
	// DefaultMaxRecoveries лимит переоткрытий цели за проход
	DefaultMaxRecoveries = 8
	// MaxBlockSize верхняя граница размера блока
	MaxBlockSize = 256 * 1024 * 1024
)

// DefaultTestTarget путь scratch-файла в тестовом режиме
func DefaultTestTarget() string {
	return filepath.Join(os.TempDir(), "netnuke-testmode.img")
}

// Config неизменяемые параметры одного запуска движка
type Config struct {
	Level           NukeLevel
	Passes          int
	BlockSize       int
	WriteMode       WriteMode
	TestMode        bool
	TestTarget      string
	TestSize        uint64
	Retainer        uint64
	BlockSizePolicy BlockSizePolicy
	SafeBlockSize   int
	MaxSpeedMBps    float64
	MaxRecoveries   int
}

// DefaultConfig возвращает параметры исходного CLI: паттерн, один проход, 512 байт, тестовый режим
func DefaultConfig() Config {
	return Config{
		Level:           LevelStaticPattern,
		Passes:          1,
		BlockSize:       DefaultBlockSize,
		WriteMode:       WriteSync,
		TestMode:        true,
		TestTarget:      DefaultTestTarget(),
		TestSize:        DefaultTestSize,
		Retainer:        DefaultRetainer,
		BlockSizePolicy: BlockSizeReset,
		SafeBlockSize:   SafeBlockSize,
		MaxRecoveries:   DefaultMaxRecoveries,
	}
}

// Validate проверяет конфигурацию до того, как будет открыто хоть одно устройство
func (c Config) Validate() error {
	switch c.Level {
	case LevelZero, LevelStaticPattern, LevelRandomFast, LevelRandomSlow:
	case LevelRewrite:
		return fmt.Errorf("%w: уровень %s не реализован", ErrConfigInvalid, c.Level)
	default:
		return fmt.Errorf("%w: неизвестный уровень затирания %d", ErrConfigInvalid, int(c.Level))
	}

	if c.Passes < 1 {
		return fmt.Errorf("%w: количество проходов должно быть >= 1, получено %d", ErrConfigInvalid, c.Passes)
	}

	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: размер блока должен быть положительным, получено %d", ErrConfigInvalid, c.BlockSize)
	}

	if c.BlockSize > MaxBlockSize {
		return fmt.Errorf("%w: размер блока слишком большой (макс %d), получено %d", ErrConfigInvalid, MaxBlockSize, c.BlockSize)
	}

	if c.SafeBlockSize <= 0 {
		return fmt.Errorf("%w: безопасный размер блока должен быть положительным, получено %d", ErrConfigInvalid, c.SafeBlockSize)
	}

	if c.WriteMode != WriteSync && c.WriteMode != WriteAsync {
		return fmt.Errorf("%w: неизвестный режим записи %d", ErrConfigInvalid, int(c.WriteMode))
	}

	switch c.BlockSizePolicy {
	case BlockSizeReset, BlockSizePersist:
	default:
		return fmt.Errorf("%w: неизвестная политика размера блока %q", ErrConfigInvalid, c.BlockSizePolicy)
	}

	if c.TestMode {
		if c.TestTarget == "" {
			return fmt.Errorf("%w: в тестовом режиме нужен путь scratch-файла", ErrConfigInvalid)
		}

		if c.TestSize == 0 || c.TestSize > MaxTestSize {
			return fmt.Errorf("%w: размер scratch-файла должен быть в (0, %d], получено %d", ErrConfigInvalid, MaxTestSize, c.TestSize)
		}
	}

	if c.MaxSpeedMBps < 0 {
		return fmt.Errorf("%w: скорость не может быть отрицательной, получено %f", ErrConfigInvalid, c.MaxSpeedMBps)
	}

	if c.MaxRecoveries < 0 {
		return fmt.Errorf("%w: лимит восстановлений не может быть отрицательным, получено %d", ErrConfigInvalid, c.MaxRecoveries)
	}

	return nil
}
