package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"netnuke/internal/config"
)

// AggregatedReport представляет агрегированный отчёт по нескольким запускам
type AggregatedReport struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	Reports       []Report          `json:"reports"`
	TotalRuns     int               `json:"total_runs"`
	TestRuns      int               `json:"test_runs"`
	TotalMachines int               `json:"total_machines"`
	TotalDevices  int               `json:"total_devices"`
	TotalBytes    uint64            `json:"total_bytes"`
	Summary       AggregatedSummary `json:"summary"`
	SuccessRate   float64           `json:"overall_success_rate"`
}

// AggregatedSummary представляет агрегированную сводку
type AggregatedSummary struct {
	Completed  int     `json:"completed"`
	Partial    int     `json:"partial"`
	Skipped    int     `json:"skipped"`
	Aborted    int     `json:"aborted"`
	Failed     int     `json:"failed"`
	SuccessPct float64 `json:"success_pct"`
}

// AggregateReports агрегирует несколько отчётов в один
func AggregateReports(reports []Report) *AggregatedReport {
	agg := &AggregatedReport{
		GeneratedAt: time.Now(),
		Reports:     reports,
		TotalRuns:   len(reports),
	}

	machines := make(map[string]bool)

	for _, report := range reports {
		agg.TotalDevices += report.Summary.TotalDevices
		agg.TotalBytes += report.Summary.TotalBytes

		if report.TestMode {
			agg.TestRuns++
		}

		machines[report.Hostname] = true

		agg.Summary.Completed += report.Summary.Completed
		agg.Summary.Partial += report.Summary.Partial
		agg.Summary.Skipped += report.Summary.Skipped
		agg.Summary.Aborted += report.Summary.Aborted
		agg.Summary.Failed += report.Summary.Failed
	}

	agg.TotalMachines = len(machines)

	if agg.TotalDevices > 0 {
		agg.Summary.SuccessPct = float64(agg.Summary.Completed) / float64(agg.TotalDevices) * 100
	}

	agg.SuccessRate = agg.Summary.SuccessPct

	return agg
}

// SaveAggregatedReport сохраняет агрегированный отчёт
func SaveAggregatedReport(agg *AggregatedReport, cfg *config.Config) (string, error) {
	// Создаем директорию для отчётов
	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания директории для отчётов: %w", err)
	}

	// Имя файла агрегированного отчёта
	filename := fmt.Sprintf("netnuke_aggregated_%s.json", agg.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	// Сериализация в JSON
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации агрегированного отчёта: %w", err)
	}

	// Запись в файл
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("ошибка записи агрегированного отчёта: %w", err)
	}

	return path, nil
}
