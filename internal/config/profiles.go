package config

import (
	"fmt"
)

// ApplyProfile применяет профиль затирания к конфигурации
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "quick":
		cfg.Wipe.NukeLevel = "zero"
		cfg.Wipe.Passes = 1
		cfg.Wipe.BlockSize = 1024 * 1024 // 1MB
		cfg.Wipe.WriteMode = "async"
	case "standard":
		cfg.Wipe.NukeLevel = "pattern"
		cfg.Wipe.Passes = 1
		cfg.Wipe.BlockSize = 64 * 1024 // 64KB
		cfg.Wipe.WriteMode = "sync"
	case "thorough":
		cfg.Wipe.NukeLevel = "random-fast"
		cfg.Wipe.Passes = 3
		cfg.Wipe.BlockSize = 64 * 1024
		cfg.Wipe.WriteMode = "sync"
	case "paranoid":
		cfg.Wipe.NukeLevel = "random-slow"
		cfg.Wipe.Passes = 7
		cfg.Wipe.BlockSize = 4096
		cfg.Wipe.WriteMode = "sync"
		cfg.Wipe.BlockSizePolicy = "persist"
	default:
		return fmt.Errorf("неизвестный профиль: %s", profile)
	}
	return nil
}
