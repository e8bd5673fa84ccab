package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/siderolabs/gen/xslices"

	"netnuke/internal/config"
	"netnuke/internal/logging"
	"netnuke/internal/metrics"
	"netnuke/internal/reporting"
	"netnuke/internal/security"
	"netnuke/internal/system"
	"netnuke/internal/wipe"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitErrors  = 1
	ExitAborted = 2
	ExitNotRoot = 3
)

// ErrNotConfirmed оператор не подтвердил затирание
var ErrNotConfirmed = errors.New("затирание не подтверждено")

// TestModeDevice имя устройства, которое затирается, если в тестовом режиме каталог пуст
const TestModeDevice = "testmode"

// Catalog источник устройств
type Catalog interface {
	List(ctx context.Context) ([]system.DiskInfo, error)
	ScanLegacy(ctx context.Context) ([]system.DiskInfo, system.Stats, error)
	Resolve(ctx context.Context, paths []string) ([]system.DiskInfo, error)
	ProbeSignatures(disks []system.DiskInfo)
}

// Console вывод для оператора
type Console interface {
	wipe.Observer
	Confirm(disks []system.DiskInfo) (bool, error)
	PrintSettings(cfg wipe.Config)
	PrintStats(stats system.Stats)
	PrintDevices(disks []system.DiskInfo)
	PrintResults(reports []*wipe.Report)
	Notice(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

// App связывает каталог, проверки безопасности, движок и отчёты
type App struct {
	logger     *logging.EnterpriseLogger
	config     *config.Config
	wipeEngine *wipe.WipeEngine
	catalog    Catalog
	console    Console
	metrics    *metrics.Collector
	mounts     func(ctx context.Context) (map[string]string, error)

	Profile string
	Force   bool
	Verbose bool
}

// NewAppWithDependencies creates a new App instance with provided dependencies
func NewAppWithDependencies(logger *logging.EnterpriseLogger, cfg *config.Config, wipeEngine *wipe.WipeEngine,
	catalog Catalog, console Console, collector *metrics.Collector,
) *App {
	wipeEngine.SetObserver(console)

	return &App{
		logger:     logger,
		config:     cfg,
		wipeEngine: wipeEngine,
		catalog:    catalog,
		console:    console,
		metrics:    collector,
		mounts:     security.MountedDevices,
	}
}

// WipeResult итог запуска
type WipeResult struct {
	Reports    []*wipe.Report
	Report     *reporting.Report
	ReportPath string
	ExitCode   int
}

// Wipe выполняет полный запуск: проверки, каталог, подтверждение, затирание, отчёт
func (a *App) Wipe(ctx context.Context, args []string, signals wipe.SkipAbortSource) (*WipeResult, error) {
	start := time.Now()

	for _, note := range a.config.Normalize() {
		a.console.Warn("*** %s", note)
		a.logger.Log("WARN", note)
	}

	wc, err := a.config.WipeConfig()
	if err != nil {
		return &WipeResult{ExitCode: ExitErrors}, err
	}

	if err := security.SecurityChecks(a.config, wc.TestMode); err != nil {
		code := ExitErrors
		if errors.Is(err, security.ErrNotRoot) {
			code = ExitNotRoot
		}
		return &WipeResult{ExitCode: code}, err
	}

	if a.Verbose {
		a.console.PrintSettings(wc)
	}

	disks, err := a.discover(ctx, args)
	if err != nil {
		return &WipeResult{ExitCode: ExitErrors}, err
	}

	selected, skipped, err := a.filter(ctx, disks)
	if err != nil {
		return &WipeResult{ExitCode: ExitErrors}, err
	}

	if len(selected) == 0 {
		if !wc.TestMode {
			return &WipeResult{ExitCode: ExitErrors}, wipe.ErrNoDevices
		}

		// тестовый режим работает и без устройств: пишется только scratch-файл
		selected = []system.DiskInfo{{Path: TestModeDevice, Name: TestModeDevice, Usable: true}}
	}

	if !wc.TestMode {
		a.catalog.ProbeSignatures(selected)

		if a.config.Security.RequireConfirmation && !a.Force {
			ok, err := a.console.Confirm(selected)
			if err != nil {
				return &WipeResult{ExitCode: ExitErrors}, err
			}

			if !ok {
				a.logger.Log("WARN", "Затирание отменено оператором")
				return &WipeResult{ExitCode: ExitErrors}, ErrNotConfirmed
			}
		}
	}

	devices := xslices.Map(selected, system.DiskInfo.Device)

	reports, runErr := a.wipeEngine.RunAll(ctx, devices, wc, signals)

	a.console.PrintResults(reports)

	result := &WipeResult{Reports: reports, ExitCode: exitCode(reports, runErr)}

	switch {
	case runErr == nil:
	case errors.Is(runErr, wipe.ErrAborted):
		a.logger.Log("WARN", "Запуск прерван", "error", runErr.Error())
		runErr = nil
	default:
		a.logger.Log("ERROR", "Запуск завершён с ошибкой", "error", runErr.Error())
	}

	a.finishRun(result, disks, skipped, start)

	return result, runErr
}

// Devices каталог для команды list
func (a *App) Devices(ctx context.Context) ([]system.DiskInfo, error) {
	disks, err := a.discover(ctx, nil)
	if err != nil {
		return nil, err
	}

	a.catalog.ProbeSignatures(disks)

	return disks, nil
}

func (a *App) discover(ctx context.Context, args []string) ([]system.DiskInfo, error) {
	if len(args) > 0 {
		return a.catalog.Resolve(ctx, args)
	}

	if a.config.Catalog.Source == config.CatalogLegacy {
		disks, stats, err := a.catalog.ScanLegacy(ctx)
		if err != nil {
			return nil, err
		}

		a.console.PrintStats(stats)

		return disks, nil
	}

	return a.catalog.List(ctx)
}

func (a *App) filter(ctx context.Context, disks []system.DiskInfo) ([]system.DiskInfo, []reporting.SkippedDevice, error) {
	mounts := map[string]string{}

	if !a.config.Wipe.TestMode {
		var err error
		if mounts, err = a.mounts(ctx); err != nil {
			return nil, nil, err
		}
	}

	var (
		selected []system.DiskInfo
		skipped  []reporting.SkippedDevice
	)

	for _, d := range disks {
		if reason, skip := security.ShouldSkipDisk(a.config, d, mounts); skip {
			a.console.Warn("Пропуск %s: %s", d.Path, reason)
			a.logger.Log("WARN", "Устройство исключено", "device", d.Path, "reason", reason)
			skipped = append(skipped, reporting.SkippedDevice{Disk: d, Reason: reason})
			continue
		}

		selected = append(selected, d)
	}

	return selected, skipped, nil
}

func (a *App) finishRun(result *WipeResult, disks []system.DiskInfo, skipped []reporting.SkippedDevice, start time.Time) {
	report, err := reporting.GenerateReport(reporting.RunInput{
		Config:    a.config,
		Profile:   a.Profile,
		Disks:     disks,
		Results:   result.Reports,
		Skipped:   skipped,
		StartTime: start,
		EndTime:   time.Now(),
		ExitCode:  result.ExitCode,
	})
	if err != nil {
		a.logger.Log("ERROR", "Не удалось сформировать отчёт", "error", err.Error())
	} else {
		result.Report = report

		path, err := reporting.SaveReport(report, a.config)
		if err != nil {
			a.logger.Log("ERROR", "Не удалось сохранить отчёт", "error", err.Error())
		} else if path != "" {
			result.ReportPath = path
			a.console.Notice("Отчёт сохранён: %s", path)
			a.logger.Log("INFO", "Отчёт сохранён", "path", path, "run_id", report.RunID)
		}
	}

	if a.metrics != nil && a.config.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.config.Metrics.Textfile); err != nil {
			a.logger.Log("ERROR", "Не удалось записать метрики", "error", err.Error())
		}
	}
}

func exitCode(reports []*wipe.Report, runErr error) int {
	if errors.Is(runErr, wipe.ErrAborted) {
		return ExitAborted
	}

	if runErr != nil {
		return ExitErrors
	}

	for _, r := range reports {
		if r.Status != wipe.StatusCompleted {
			return ExitErrors
		}
	}

	return ExitSuccess
}

// String для логов
func (r *WipeResult) String() string {
	return fmt.Sprintf("устройств %d, код выхода %d", len(r.Reports), r.ExitCode)
}

// Diagnose предполётная проверка машины
func (a *App) Diagnose(ctx context.Context, level system.DiagnosticLevel, test system.DiagnosticTest) (*system.SystemDiagnostics, error) {
	runner := system.NewSystemDiagnosticsRunner(system.DiagnosticsOptions{
		Level:     level,
		Test:      test,
		Catalog:   a.catalog,
		ScratchIn: filepath.Dir(a.config.Wipe.TestTarget),
		ReportDir: a.reportDir(),
	}, a.logger)

	return runner.RunDiagnostics(ctx)
}

// Reports сводка по сохранённым отчётам
func (a *App) Reports(dir string) (*reporting.AggregatedReport, error) {
	if dir == "" {
		dir = a.config.Reporting.LocalPath
	}

	reports, err := reporting.LoadReports(dir)
	if err != nil {
		return nil, err
	}

	return reporting.AggregateReports(reports), nil
}

func (a *App) reportDir() string {
	if !a.config.Reporting.Enabled {
		return ""
	}

	return a.config.Reporting.LocalPath
}
