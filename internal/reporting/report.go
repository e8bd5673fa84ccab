package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"

	"netnuke/internal/config"
	"netnuke/internal/system"
	"netnuke/internal/wipe"
)

// Version версия netnuke, попадает в отчёты и метрики
var Version = "0.4.0"

const (
	reportPrefix = "netnuke_report_"
	zstdSuffix   = ".zst"
)

// Report представляет JSON отчёт о запуске
type Report struct {
	RunID         string                 `json:"run_id"`
	Version       string                 `json:"version"`
	Hostname      string                 `json:"hostname"`
	Timestamp     time.Time              `json:"timestamp"`
	Config        map[string]interface{} `json:"config"`
	Profile       string                 `json:"profile,omitempty"`
	TestMode      bool                   `json:"test_mode"`
	CatalogSource string                 `json:"catalog_source"`
	Devices       []DeviceReport         `json:"devices"`
	Summary       SummaryReport          `json:"summary"`
	ExitCode      int                    `json:"exit_code"`
	Duration      string                 `json:"duration"`
}

// DeviceReport представляет отчёт о затирании одного устройства
type DeviceReport struct {
	Device          string       `json:"device"`
	Target          string       `json:"target,omitempty"`
	Model           *string      `json:"model,omitempty"`
	Serial          *string      `json:"serial,omitempty"`
	Signature       *string      `json:"signature,omitempty"`
	Size            uint64       `json:"size"`
	Level           string       `json:"level"`
	Passes          int          `json:"passes"`
	PassesCompleted int          `json:"passes_completed"`
	BlockSize       int          `json:"block_size"`
	BytesWritten    uint64       `json:"bytes_written"`
	Status          string       `json:"status"`
	FullyWiped      bool         `json:"fully_wiped"`
	SpeedMBps       float64      `json:"speed_mbps"`
	Errors          int          `json:"errors"`
	SkipReason      *string      `json:"skip_reason,omitempty"`
	Events          []wipe.Event `json:"events,omitempty"`
	StartTime       *time.Time   `json:"start_time,omitempty"`
	EndTime         *time.Time   `json:"end_time,omitempty"`
	Duration        string       `json:"duration,omitempty"`
}

// SummaryReport представляет сводную информацию
type SummaryReport struct {
	TotalDevices int     `json:"total_devices"`
	Completed    int     `json:"completed"`
	Partial      int     `json:"partial"`
	Skipped      int     `json:"skipped"`
	Aborted      int     `json:"aborted"`
	Failed       int     `json:"failed"`
	Errors       int     `json:"errors"`
	TotalBytes   uint64  `json:"total_bytes"`
	AverageSpeed float64 `json:"average_speed_mbps"`
	SuccessRate  float64 `json:"success_rate"`
}

// SkippedDevice устройство, отброшенное до запуска движка
type SkippedDevice struct {
	Disk   system.DiskInfo
	Reason string
}

// RunInput всё, что нужно для построения отчёта о запуске
type RunInput struct {
	Config    *config.Config
	Profile   string
	Disks     []system.DiskInfo
	Results   []*wipe.Report
	Skipped   []SkippedDevice
	StartTime time.Time
	EndTime   time.Time
	ExitCode  int
}

// GenerateReport генерирует JSON отчёт о запуске
func GenerateReport(in RunInput) (*Report, error) {
	if in.Config == nil {
		return nil, fmt.Errorf("отчёт без конфигурации")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	disks := map[string]system.DiskInfo{}
	for _, d := range in.Disks {
		disks[d.Path] = d
	}

	report := &Report{
		RunID:         uuid.New().String(),
		Version:       Version,
		Hostname:      hostname,
		Timestamp:     in.StartTime,
		Config:        configToMap(in.Config),
		Profile:       in.Profile,
		TestMode:      in.Config.Wipe.TestMode,
		CatalogSource: in.Config.Catalog.Source,
		ExitCode:      in.ExitCode,
		Duration:      in.EndTime.Sub(in.StartTime).String(),
	}

	report.Devices = xslices.Map(in.Results, func(r *wipe.Report) DeviceReport {
		return fromEngineReport(r, disks[r.Device])
	})

	report.Devices = append(report.Devices, xslices.Map(in.Skipped, func(s SkippedDevice) DeviceReport {
		return DeviceReport{
			Device:     s.Disk.Path,
			Model:      optional(s.Disk.Model),
			Serial:     optional(s.Disk.Serial),
			Size:       s.Disk.Size,
			Level:      in.Config.Wipe.NukeLevel,
			Passes:     in.Config.Wipe.Passes,
			Status:     string(wipe.StatusSkipped),
			SkipReason: pointer.To(s.Reason),
		}
	})...)

	report.Summary = summarize(report.Devices)

	return report, nil
}

func fromEngineReport(r *wipe.Report, disk system.DiskInfo) DeviceReport {
	dr := DeviceReport{
		Device:          r.Device,
		Target:          r.Target,
		Model:           optional(disk.Model),
		Serial:          optional(disk.Serial),
		Signature:       optional(disk.Signature),
		Size:            r.TargetSize,
		Level:           r.Level.String(),
		Passes:          r.Passes,
		PassesCompleted: r.PassesCompleted,
		BlockSize:       r.BlockSize,
		BytesWritten:    r.BytesWritten,
		Status:          string(r.Status),
		FullyWiped:      r.FullyWiped,
		SpeedMBps:       r.SpeedMBps(),
		Errors:          r.ErrorCount(),
		Events:          r.Events,
		Duration:        r.Duration.String(),
	}

	if !r.StartTime.IsZero() {
		dr.StartTime = pointer.To(r.StartTime)
	}

	if !r.EndTime.IsZero() {
		dr.EndTime = pointer.To(r.EndTime)
	}

	return dr
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return pointer.To(s)
}

func summarize(devices []DeviceReport) SummaryReport {
	summary := SummaryReport{TotalDevices: len(devices)}

	var totalSpeed float64
	speedSamples := 0

	for _, d := range devices {
		switch wipe.Status(d.Status) {
		case wipe.StatusCompleted:
			summary.Completed++
		case wipe.StatusPartial:
			summary.Partial++
		case wipe.StatusSkipped:
			summary.Skipped++
		case wipe.StatusAborted:
			summary.Aborted++
		case wipe.StatusFailed:
			summary.Failed++
		}

		summary.Errors += d.Errors
		summary.TotalBytes += d.BytesWritten

		if d.BytesWritten > 0 {
			totalSpeed += d.SpeedMBps
			speedSamples++
		}
	}

	if speedSamples > 0 {
		summary.AverageSpeed = totalSpeed / float64(speedSamples)
	}

	if len(devices) > 0 {
		summary.SuccessRate = float64(summary.Completed) / float64(len(devices)) * 100
	}

	return summary
}

// SaveReport сохраняет отчёт в JSON файл и возвращает путь к нему
func SaveReport(report *Report, cfg *config.Config) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	// Создаем директорию для отчётов
	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания директории для отчётов: %w", err)
	}

	// Имя файла отчёта
	filename := fmt.Sprintf("%s%s_%s.json", reportPrefix, report.Timestamp.Format("20060102_150405"), shortID(report.RunID))
	if cfg.Reporting.Compress {
		filename += zstdSuffix
	}
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	// Сериализация в JSON
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации отчёта: %w", err)
	}

	if cfg.Reporting.Compress {
		if data, err = compress(data); err != nil {
			return "", fmt.Errorf("ошибка сжатия отчёта: %w", err)
		}
	}

	// Запись в файл
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("ошибка записи отчёта: %w", err)
	}

	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err = enc.Write(data); err != nil {
		return nil, err
	}
	if err = enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}

// LoadReport читает отчёт, сжатый или нет
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, zstdSuffix) {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("ошибка распаковки отчёта %s: %w", path, err)
		}
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("ошибка разбора отчёта %s: %w", path, err)
	}

	return &report, nil
}

// LoadReports читает все отчёты каталога в порядке времени запуска
func LoadReports(dir string) ([]Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога отчётов %s: %w", dir, err)
	}

	var reports []Report

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, reportPrefix) {
			continue
		}

		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".json"+zstdSuffix) {
			continue
		}

		report, err := LoadReport(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		reports = append(reports, *report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Timestamp.Before(reports[j].Timestamp) })

	return reports, nil
}

// configToMap преобразует Config в map для JSON сериализации
func configToMap(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"security": map[string]interface{}{
			"require_root":         cfg.Security.RequireRoot,
			"require_confirmation": cfg.Security.RequireConfirmation,
			"excluded_devices":     cfg.Security.ExcludedDevices,
			"allow_mounted":        cfg.Security.AllowMounted,
		},
		"wipe": map[string]interface{}{
			"nuke_level":        cfg.Wipe.NukeLevel,
			"passes":            cfg.Wipe.Passes,
			"block_size":        cfg.Wipe.BlockSize,
			"write_mode":        cfg.Wipe.WriteMode,
			"test_mode":         cfg.Wipe.TestMode,
			"test_target":       cfg.Wipe.TestTarget,
			"test_size":         cfg.Wipe.TestSize,
			"block_size_policy": cfg.Wipe.BlockSizePolicy,
			"max_speed_mbps":    cfg.Wipe.MaxSpeedMBps,
			"max_recoveries":    cfg.Wipe.MaxRecoveries,
		},
		"catalog": map[string]interface{}{
			"source": cfg.Catalog.Source,
		},
		"logging": map[string]interface{}{
			"level":      cfg.Logging.Level,
			"file":       cfg.Logging.File,
			"structured": cfg.Logging.Structured,
		},
		"reporting": map[string]interface{}{
			"enabled":    cfg.Reporting.Enabled,
			"local_path": cfg.Reporting.LocalPath,
			"compress":   cfg.Reporting.Compress,
		},
	}
}
