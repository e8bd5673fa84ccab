package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"netnuke/internal/wipe"
)

// Конфигурация NetNuke
type Config struct {
	Security struct {
		RequireRoot         bool     `yaml:"require_root"`
		RequireConfirmation bool     `yaml:"require_confirmation"`
		ExcludedDevices     []string `yaml:"excluded_devices"`
		AllowMounted        bool     `yaml:"allow_mounted"`
	} `yaml:"security"`

	Wipe struct {
		NukeLevel       string  `yaml:"nuke_level"`
		Passes          int     `yaml:"passes"`
		BlockSize       int     `yaml:"block_size"`
		WriteMode       string  `yaml:"write_mode"`
		TestMode        bool    `yaml:"test_mode"`
		TestTarget      string  `yaml:"test_target"`
		TestSize        uint64  `yaml:"test_size"`
		Retainer        uint64  `yaml:"retainer"`
		BlockSizePolicy string  `yaml:"block_size_policy"`
		SafeBlockSize   int     `yaml:"safe_block_size"`
		MaxSpeedMBps    float64 `yaml:"max_speed_mbps"`
		MaxRecoveries   int     `yaml:"max_recoveries"`
	} `yaml:"wipe"`

	Catalog struct {
		Source  string `yaml:"source"`
		SysRoot string `yaml:"sys_root"`
		DevRoot string `yaml:"dev_root"`
	} `yaml:"catalog"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Structured bool   `yaml:"structured"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled   bool   `yaml:"enabled"`
		LocalPath string `yaml:"local_path"`
		Compress  bool   `yaml:"compress"`
	} `yaml:"reporting"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	UI struct {
		Progress string `yaml:"progress"`
		Color    bool   `yaml:"color"`
	} `yaml:"ui"`

	// заметки нормализации, накопленные при загрузке файла
	pending []string
}

// Источники каталога устройств
const (
	CatalogSysfs  = "sysfs"
	CatalogLegacy = "legacy"
)

// Режимы вывода прогресса
const (
	ProgressAuto = "auto"
	ProgressBar  = "bar"
	ProgressLine = "line"
	ProgressNone = "none"
)

// Default возвращает конфигурацию по умолчанию: тестовый режим включён
func Default() *Config {
	cfg := &Config{}

	cfg.Security.RequireRoot = true
	cfg.Security.RequireConfirmation = true
	cfg.Security.ExcludedDevices = []string{}
	cfg.Security.AllowMounted = false

	wc := wipe.DefaultConfig()
	cfg.Wipe.NukeLevel = wc.Level.String()
	cfg.Wipe.Passes = wc.Passes
	cfg.Wipe.BlockSize = wc.BlockSize
	cfg.Wipe.WriteMode = strings.ToLower(wc.WriteMode.String())
	cfg.Wipe.TestMode = wc.TestMode
	cfg.Wipe.TestTarget = wc.TestTarget
	cfg.Wipe.TestSize = wc.TestSize
	cfg.Wipe.Retainer = wc.Retainer
	cfg.Wipe.BlockSizePolicy = string(wc.BlockSizePolicy)
	cfg.Wipe.SafeBlockSize = wc.SafeBlockSize
	cfg.Wipe.MaxSpeedMBps = 0 // без ограничения
	cfg.Wipe.MaxRecoveries = wc.MaxRecoveries

	cfg.Catalog.Source = CatalogSysfs
	cfg.Catalog.SysRoot = "/sys"
	cfg.Catalog.DevRoot = "/dev"

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""
	cfg.Logging.Structured = true

	cfg.Reporting.Enabled = true
	cfg.Reporting.LocalPath = "./reports"
	cfg.Reporting.Compress = false

	cfg.UI.Progress = ProgressAuto
	cfg.UI.Color = true

	return cfg
}

// Load загружает конфигурацию из файла поверх значений по умолчанию
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// passes: 0 и nuke_level: rewrite допустимы в файле и приводятся до проверки
	config.pending = config.Normalize()

	// Валидация конфигурации
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	// Валидация wipe секции
	if _, err := config.WipeConfig(); err != nil {
		return err
	}

	// Валидация catalog секции
	switch config.Catalog.Source {
	case CatalogSysfs, CatalogLegacy:
	default:
		return fmt.Errorf("invalid catalog source: %s", config.Catalog.Source)
	}

	if config.Catalog.DevRoot == "" {
		return fmt.Errorf("empty catalog dev_root")
	}

	if config.Catalog.Source == CatalogSysfs && config.Catalog.SysRoot == "" {
		return fmt.Errorf("empty catalog sys_root")
	}

	// Валидация logging секции
	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	// Валидация reporting секции
	if config.Reporting.Enabled && config.Reporting.LocalPath == "" {
		return fmt.Errorf("reporting enabled but local_path is empty")
	}

	// Валидация ui секции
	if !slices.Contains([]string{ProgressAuto, ProgressBar, ProgressLine, ProgressNone}, config.UI.Progress) {
		return fmt.Errorf("invalid progress mode: %s", config.UI.Progress)
	}

	// Валидация исключений
	for _, pattern := range config.Security.ExcludedDevices {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("empty excluded device pattern")
		}
	}

	return nil
}

// Normalize приводит значения к поведению исходного CLI и возвращает заметки для оператора,
// включая отложенные при Load
func (config *Config) Normalize() []string {
	notes := config.pending
	config.pending = nil

	if config.Wipe.Passes < 1 {
		notes = append(notes, fmt.Sprintf("Количество проходов %d меньше 1, используется 1", config.Wipe.Passes))
		config.Wipe.Passes = 1
	}

	level, err := wipe.ParseNukeLevel(config.Wipe.NukeLevel)
	if err == nil && level == wipe.LevelRewrite {
		notes = append(notes, "Уровень rewrite не реализован, используется pattern")
		level = wipe.LevelStaticPattern
	}

	if err == nil {
		config.Wipe.NukeLevel = level.String()
	}

	if config.Wipe.BlockSizePolicy == "" {
		config.Wipe.BlockSizePolicy = string(wipe.BlockSizeReset)
	}

	if config.Wipe.SafeBlockSize <= 0 {
		config.Wipe.SafeBlockSize = wipe.SafeBlockSize
	}

	if config.Wipe.TestMode && config.Wipe.TestTarget == "" {
		config.Wipe.TestTarget = wipe.DefaultTestTarget()
	}

	if config.Wipe.TestMode && config.Wipe.TestSize == 0 {
		config.Wipe.TestSize = wipe.DefaultTestSize
	}

	config.Logging.Level = strings.ToUpper(config.Logging.Level)

	return notes
}

// WipeConfig собирает неизменяемые параметры движка
func (config *Config) WipeConfig() (wipe.Config, error) {
	level, err := wipe.ParseNukeLevel(config.Wipe.NukeLevel)
	if err != nil {
		return wipe.Config{}, err
	}

	mode, err := wipe.ParseWriteMode(config.Wipe.WriteMode)
	if err != nil {
		return wipe.Config{}, err
	}

	wc := wipe.Config{
		Level:           level,
		Passes:          config.Wipe.Passes,
		BlockSize:       config.Wipe.BlockSize,
		WriteMode:       mode,
		TestMode:        config.Wipe.TestMode,
		TestTarget:      config.Wipe.TestTarget,
		TestSize:        config.Wipe.TestSize,
		Retainer:        config.Wipe.Retainer,
		BlockSizePolicy: wipe.BlockSizePolicy(config.Wipe.BlockSizePolicy),
		SafeBlockSize:   config.Wipe.SafeBlockSize,
		MaxSpeedMBps:    config.Wipe.MaxSpeedMBps,
		MaxRecoveries:   config.Wipe.MaxRecoveries,
	}

	if err := wc.Validate(); err != nil {
		return wipe.Config{}, err
	}

	return wc, nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	// Валидация перед сохранением
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	// Создаем директорию если нужно
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
