package system

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"netnuke/internal/wipe"
)

// DiagnosticLevel определяет уровень диагностики
type DiagnosticLevel string

const (
	LevelQuick DiagnosticLevel = "quick"
	LevelFull  DiagnosticLevel = "full"
)

// DiagnosticTest определяет тип теста
type DiagnosticTest string

const (
	TestPermissions DiagnosticTest = "permissions"
	TestDisks       DiagnosticTest = "disks"
	TestMemory      DiagnosticTest = "memory"
	TestCPU         DiagnosticTest = "cpu"
	TestPaths       DiagnosticTest = "paths"
	TestWipe        DiagnosticTest = "wipe"
)

// Статусы теста
const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// DiagnosticResult содержит результат теста
type DiagnosticResult struct {
	Test      DiagnosticTest `json:"test"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Details   interface{}    `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// SystemDiagnostics содержит полную диагностику системы
type SystemDiagnostics struct {
	Level       DiagnosticLevel    `json:"level"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Duration    time.Duration      `json:"duration"`
	Overall     string             `json:"overall"` // HEALTHY, WARNING, CRITICAL
	Results     []DiagnosticResult `json:"results"`
	Summary     DiagnosticSummary  `json:"summary"`
	Environment SystemEnvironment  `json:"environment"`
}

// DiagnosticSummary содержит сводку результатов
type DiagnosticSummary struct {
	TotalTests int `json:"total_tests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Warnings   int `json:"warnings"`
}

// SystemEnvironment содержит информацию об окружении
type SystemEnvironment struct {
	OSVersion    string `json:"os_version"`
	Kernel       string `json:"kernel"`
	Architecture string `json:"architecture"`
	Hostname     string `json:"hostname"`
	EUID         int    `json:"euid"`
	CPUCount     int    `json:"cpu_count"`
}

// DiagnosticsOptions что и где проверять
type DiagnosticsOptions struct {
	Level     DiagnosticLevel
	Test      DiagnosticTest // только один тест, если задан
	Catalog   DiskLister
	ScratchIn string // каталог для пробного затирания
	ReportDir string
}

// SystemDiagnosticsRunner выполняет предполётную проверку машины перед затиранием
type SystemDiagnosticsRunner struct {
	opts    DiagnosticsOptions
	logger  wipe.Logger
	geteuid func() int
}

// NewSystemDiagnosticsRunner создает новый runner
func NewSystemDiagnosticsRunner(opts DiagnosticsOptions, logger wipe.Logger) *SystemDiagnosticsRunner {
	if opts.ScratchIn == "" {
		opts.ScratchIn = os.TempDir()
	}

	return &SystemDiagnosticsRunner{opts: opts, logger: logger, geteuid: os.Geteuid}
}

// RunDiagnostics выполняет диагностику
func (sdr *SystemDiagnosticsRunner) RunDiagnostics(ctx context.Context) (*SystemDiagnostics, error) {
	diagnostics := &SystemDiagnostics{
		Level:       sdr.opts.Level,
		StartTime:   time.Now(),
		Results:     make([]DiagnosticResult, 0),
		Environment: sdr.collectEnvironmentInfo(ctx),
	}

	for _, test := range sdr.getTestsForLevel() {
		if err := ctx.Err(); err != nil {
			return diagnostics, err
		}

		diagnostics.Results = append(diagnostics.Results, sdr.runTest(ctx, test))
	}

	diagnostics.EndTime = time.Now()
	diagnostics.Duration = diagnostics.EndTime.Sub(diagnostics.StartTime)
	diagnostics.Summary = calculateSummary(diagnostics.Results)
	diagnostics.Overall = determineOverallStatus(diagnostics.Summary)

	return diagnostics, nil
}

func (sdr *SystemDiagnosticsRunner) getTestsForLevel() []DiagnosticTest {
	if sdr.opts.Test != "" {
		return []DiagnosticTest{sdr.opts.Test}
	}

	if sdr.opts.Level == LevelFull {
		return []DiagnosticTest{TestPermissions, TestDisks, TestMemory, TestCPU, TestPaths, TestWipe}
	}

	return []DiagnosticTest{TestPermissions, TestDisks, TestMemory}
}

func (sdr *SystemDiagnosticsRunner) runTest(ctx context.Context, test DiagnosticTest) DiagnosticResult {
	result := DiagnosticResult{
		Test:      test,
		Timestamp: time.Now(),
	}

	switch test {
	case TestPermissions:
		result.Status, result.Message, result.Details = sdr.testPermissions()
	case TestDisks:
		result.Status, result.Message, result.Details = sdr.testDisks(ctx)
	case TestMemory:
		result.Status, result.Message, result.Details = sdr.testMemory(ctx)
	case TestCPU:
		result.Status, result.Message, result.Details = sdr.testCPU()
	case TestPaths:
		result.Status, result.Message, result.Details = sdr.testPaths()
	case TestWipe:
		result.Status, result.Message, result.Details = sdr.testWipe(ctx)
	default:
		result.Status, result.Message = StatusFail, fmt.Sprintf("неизвестный тест %q", test)
	}

	result.Duration = time.Since(result.Timestamp)

	if sdr.logger != nil {
		sdr.logger.Log("INFO", "Диагностика", "test", string(test), "status", result.Status, "message", result.Message)
	}

	return result
}

func (sdr *SystemDiagnosticsRunner) testPermissions() (string, string, interface{}) {
	euid := sdr.geteuid()
	details := map[string]interface{}{"euid": euid}

	if euid == 0 {
		return StatusPass, "Запущено от root", details
	}

	return StatusWarn, "Нет прав root: доступен только тестовый режим", details
}

func (sdr *SystemDiagnosticsRunner) testDisks(ctx context.Context) (string, string, interface{}) {
	if sdr.opts.Catalog == nil {
		return StatusWarn, "Каталог устройств не задан", nil
	}

	disks, err := sdr.opts.Catalog.List(ctx)
	if err != nil {
		return StatusFail, fmt.Sprintf("Ошибка построения каталога: %v", err), nil
	}

	diskDetails := make([]map[string]interface{}, len(disks))
	for i, d := range disks {
		diskDetails[i] = map[string]interface{}{
			"path":   d.Path,
			"type":   d.Type,
			"size":   humanize.IBytes(d.Size),
			"usable": d.Usable,
			"reason": d.Reason,
		}
	}

	usable := Usable(disks)
	if len(usable) == 0 {
		return StatusWarn, fmt.Sprintf("Найдено %d устройств, пригодных нет", len(disks)), diskDetails
	}

	return StatusPass, fmt.Sprintf("Найдено %d устройств, пригодных %d", len(disks), len(usable)), diskDetails
}

func (sdr *SystemDiagnosticsRunner) testMemory(ctx context.Context) (string, string, interface{}) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return StatusWarn, fmt.Sprintf("Не удалось получить сведения о памяти: %v", err), nil
	}

	details := map[string]interface{}{
		"total":         humanize.IBytes(vm.Total),
		"available":     humanize.IBytes(vm.Available),
		"usage_percent": vm.UsedPercent,
	}

	// буферы самого большого блока и пул на каждый проход
	if vm.Available < 64*1024*1024 {
		return StatusWarn, fmt.Sprintf("Мало свободной памяти: %s", humanize.IBytes(vm.Available)), details
	}

	return StatusPass, fmt.Sprintf("Использование памяти в норме: %.1f%%", vm.UsedPercent), details
}

func (sdr *SystemDiagnosticsRunner) testCPU() (string, string, interface{}) {
	cpuCount := runtime.NumCPU()

	details := map[string]interface{}{
		"cpu_count": cpuCount,
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}

	if runtime.GOOS != "linux" {
		return StatusFail, "Поддерживается только Linux", details
	}

	return StatusPass, fmt.Sprintf("Доступно %d CPU ядер", cpuCount), details
}

func (sdr *SystemDiagnosticsRunner) testPaths() (string, string, interface{}) {
	paths := []string{sdr.opts.ScratchIn}
	if sdr.opts.ReportDir != "" {
		paths = append(paths, sdr.opts.ReportDir)
	}

	pathDetails := make([]map[string]interface{}, len(paths))
	allWritable := true

	for i, path := range paths {
		writable := dirWritable(path)
		if !writable {
			allWritable = false
		}

		pathDetails[i] = map[string]interface{}{
			"path":     path,
			"writable": writable,
		}
	}

	if allWritable {
		return StatusPass, "Все проверенные пути доступны на запись", pathDetails
	}

	return StatusWarn, "Некоторые пути недоступны на запись", pathDetails
}

// testWipe прогоняет движок по маленькому временному файлу и проверяет, что он обнулён
func (sdr *SystemDiagnosticsRunner) testWipe(ctx context.Context) (string, string, interface{}) {
	dir, err := os.MkdirTemp(sdr.opts.ScratchIn, "netnuke-selftest-")
	if err != nil {
		return StatusFail, fmt.Sprintf("Ошибка создания временного каталога: %v", err), nil
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	const size = 256 * 1024

	target := filepath.Join(dir, "scratch")
	if err := os.WriteFile(target, bytes.Repeat([]byte{0xFF}, size), 0o600); err != nil {
		return StatusFail, fmt.Sprintf("Ошибка записи в тестовый файл: %v", err), nil
	}

	cfg := wipe.DefaultConfig()
	cfg.Level = wipe.LevelZero
	cfg.BlockSize = 64 * 1024
	cfg.TestTarget = target
	cfg.TestSize = size

	report, err := wipe.NewWipeEngine(nil).Run(ctx, wipe.Device{Path: "selftest", Name: "selftest"}, cfg, nil)
	if err != nil {
		return StatusFail, fmt.Sprintf("Ошибка пробного затирания: %v", err), nil
	}

	details := map[string]interface{}{
		"status":        report.Status,
		"bytes_written": report.BytesWritten,
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return StatusFail, fmt.Sprintf("Ошибка чтения тестового файла: %v", err), details
	}

	if report.Status != wipe.StatusCompleted || !bytes.Equal(data, make([]byte, size)) {
		return StatusFail, "Тестовый файл затёрт не полностью", details
	}

	return StatusPass, "Пробное затирание пройдено успешно", details
}

func (sdr *SystemDiagnosticsRunner) collectEnvironmentInfo(ctx context.Context) SystemEnvironment {
	env := SystemEnvironment{
		OSVersion:    runtime.GOOS,
		Architecture: runtime.GOARCH,
		EUID:         sdr.geteuid(),
		CPUCount:     runtime.NumCPU(),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		env.OSVersion = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		env.Kernel = info.KernelVersion
		env.Hostname = info.Hostname
	}

	return env
}

func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".netnuke-probe-")
	if err != nil {
		return false
	}

	name := f.Name()
	f.Close()       //nolint:errcheck
	os.Remove(name) //nolint:errcheck

	return true
}

func calculateSummary(results []DiagnosticResult) DiagnosticSummary {
	summary := DiagnosticSummary{TotalTests: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusWarn:
			summary.Warnings++
		}
	}

	return summary
}

func determineOverallStatus(summary DiagnosticSummary) string {
	if summary.Failed > 0 {
		return "CRITICAL"
	}

	if summary.Warnings > 0 {
		return "WARNING"
	}

	return "HEALTHY"
}

// SaveDiagnostics сохраняет диагностику в файл
func SaveDiagnostics(diagnostics *SystemDiagnostics, outputPath string) error {
	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	return nil
}
