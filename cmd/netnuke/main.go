package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netnuke/internal/app"
	"netnuke/internal/cli"
	"netnuke/internal/config"
	"netnuke/internal/logging"
	"netnuke/internal/metrics"
	"netnuke/internal/reporting"
	"netnuke/internal/security"
	"netnuke/internal/system"
	"netnuke/internal/wipe"
)

const AppName = "NetNuke"

var (
	configPath  string
	verbose     bool
	verboseHigh bool
	profile     string
)

// exitError несёт код выхода процесса
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// CLI команды
var rootCmd = &cobra.Command{
	Use:           "netnuke",
	Short:         "NetNuke - затирание носителей перед списанием",
	Long:          "Перезаписывает блочные устройства нулями, паттернами или случайными данными. По умолчанию работает в тестовом режиме и пишет только scratch-файл.",
	Version:       reporting.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe [устройства]",
	Short: "Затереть устройства",
	Example: `  netnuke wipe
  netnuke wipe --disable-test -n random-fast -p 3 /dev/sdb
  netnuke wipe --profile paranoid --disable-test --force`,
	RunE: runWipe,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать каталог устройств",
	RunE:  runList,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Интерактивный мастер",
	RunE:  runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать версию",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", AppName, reporting.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().BoolVar(&verboseHigh, "verbose-high", false, "Отладочный вывод, включая содержимое буферов")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Профиль затирания (quick/standard/thorough/paranoid)")

	wipeCmd.Flags().StringP("nuke-level", "n", "", "Уровень затирания (0-3 или zero/pattern/random-fast/random-slow)")
	wipeCmd.Flags().IntP("passes", "p", 0, "Количество проходов")
	wipeCmd.Flags().IntP("block-size", "b", 0, "Размер блока в байтах")
	wipeCmd.Flags().StringP("write-mode", "w", "", "Режим записи (sync/async)")
	wipeCmd.Flags().Bool("disable-test", false, "Затирать настоящие устройства")
	wipeCmd.Flags().String("test-target", "", "Путь scratch-файла тестового режима")
	wipeCmd.Flags().Uint64("test-size", 0, "Размер scratch-файла в байтах")
	wipeCmd.Flags().BoolP("force", "f", false, "Пропустить подтверждение")
	wipeCmd.Flags().Uint64("retainer", 0, "Печатать прогресс раз в N блоков")
	wipeCmd.Flags().String("block-size-policy", "", "Размер блока после понижения (reset/persist)")
	wipeCmd.Flags().Float64("max-speed", 0, "Ограничение скорости записи, МБ/с")
	wipeCmd.Flags().String("metrics-file", "", "Файл метрик для node_exporter")
	wipeCmd.Flags().String("catalog", "", "Источник каталога (sysfs/legacy)")
	wipeCmd.Flags().String("progress", "", "Вывод прогресса (auto/bar/line/none)")

	rootCmd.AddCommand(wipeCmd, listCmd, interactiveCmd, versionCmd, diagnoseCmd, reportsCmd)
}

// runtimeDeps всё, что собирается из конфигурации перед запуском команды
type runtimeDeps struct {
	cfg     *config.Config
	logger  *logging.EnterpriseLogger
	console *cli.Console
	app     *app.App
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return nil, fmt.Errorf("ошибка применения профиля %s: %w", profile, err)
		}
	}

	if verboseHigh {
		verbose = true
		cfg.Logging.Level = "DEBUG"
	}

	return cfg, nil
}

// normalizeConfig приводит значения после файла, профиля и флагов, затем проверяет их
func normalizeConfig(cfg *config.Config) ([]string, error) {
	notes := cfg.Normalize()

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("невалидная конфигурация: %w", err)
	}

	return notes, nil
}

func setup(cfg *config.Config) (*runtimeDeps, error) {
	notes, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewEnterpriseLogger(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	console := cli.NewConsole(os.Stdout, os.Stderr, cfg.UI.Progress, cfg.UI.Color)
	for _, note := range notes {
		console.Warn("*** %s", note)
		logger.Log("WARN", note)
	}

	collector := metrics.New(reporting.Version)
	engine := wipe.NewWipeEngine(logger, wipe.WithRecorder(collector))
	catalog := system.NewCatalog(cfg.Catalog.SysRoot, cfg.Catalog.DevRoot, system.BlockProber{Logger: logger.Zap()}, logger)

	a := app.NewAppWithDependencies(logger, cfg, engine, catalog, console, collector)
	a.Profile = profile
	a.Verbose = verbose

	return &runtimeDeps{cfg: cfg, logger: logger, console: console, app: a}, nil
}

// applyWipeFlags флаги командной строки перекрывают файл конфигурации
func applyWipeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("nuke-level") {
		cfg.Wipe.NukeLevel, _ = flags.GetString("nuke-level")
	}
	if flags.Changed("passes") {
		cfg.Wipe.Passes, _ = flags.GetInt("passes")
	}
	if flags.Changed("block-size") {
		cfg.Wipe.BlockSize, _ = flags.GetInt("block-size")
	}
	if flags.Changed("write-mode") {
		cfg.Wipe.WriteMode, _ = flags.GetString("write-mode")
	}
	if disable, _ := flags.GetBool("disable-test"); disable {
		cfg.Wipe.TestMode = false
	}
	if flags.Changed("test-target") {
		cfg.Wipe.TestTarget, _ = flags.GetString("test-target")
	}
	if flags.Changed("test-size") {
		cfg.Wipe.TestSize, _ = flags.GetUint64("test-size")
	}
	if flags.Changed("retainer") {
		cfg.Wipe.Retainer, _ = flags.GetUint64("retainer")
	}
	if flags.Changed("block-size-policy") {
		cfg.Wipe.BlockSizePolicy, _ = flags.GetString("block-size-policy")
	}
	if flags.Changed("max-speed") {
		cfg.Wipe.MaxSpeedMBps, _ = flags.GetFloat64("max-speed")
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("catalog") {
		cfg.Catalog.Source, _ = flags.GetString("catalog")
	}
	if flags.Changed("progress") {
		cfg.UI.Progress, _ = flags.GetString("progress")
	}
}

func runWipe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	applyWipeFlags(cmd, cfg)

	deps, err := setup(cfg)
	if err != nil {
		return err
	}
	defer deps.logger.Close() //nolint:errcheck

	deps.app.Force, _ = cmd.Flags().GetBool("force")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	signals := &wipe.Signals{}
	stop := watchSignals(signals, deps.console, deps.logger)
	defer stop()

	deps.logger.Log("INFO", "Запуск NetNuke", "version", reporting.Version, "test_mode", cfg.Wipe.TestMode, "args", args)

	result, err := deps.app.Wipe(ctx, args, signals)

	code := app.ExitErrors
	if result != nil {
		code = result.ExitCode
	}

	if err != nil {
		deps.logger.Log("ERROR", "Запуск завершён с ошибкой", "error", err.Error(), "exit_code", code)
		return &exitError{code: code, err: err}
	}

	deps.logger.Log("INFO", "Запуск завершён", "result", result.String())

	if code != app.ExitSuccess {
		return &exitError{code: code, err: fmt.Errorf("запуск завершён с кодом %d", code)}
	}

	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := setup(cfg)
	if err != nil {
		return err
	}
	defer deps.logger.Close() //nolint:errcheck

	disks, err := deps.app.Devices(cmd.Context())
	if err != nil {
		return fmt.Errorf("ошибка построения каталога: %w", err)
	}

	deps.console.PrintDevices(disks)

	return nil
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := setup(cfg)
	if err != nil {
		return err
	}
	defer deps.logger.Close() //nolint:errcheck

	signals := &wipe.Signals{}
	stop := watchSignals(signals, deps.console, deps.logger)
	defer stop()

	code, err := app.NewInteractiveMenu(deps.app, os.Stdout, signals).Run(cmd.Context())
	if err != nil {
		return err
	}

	if code != app.ExitSuccess {
		return &exitError{code: code, err: fmt.Errorf("запуск завершён с кодом %d", code)}
	}

	return nil
}

// watchSignals SIGUSR1 пропускает текущее устройство, остальные прерывают запуск.
// Повторный сигнал прерывания завершает процесс сразу.
func watchSignals(signals *wipe.Signals, console *cli.Console, logger *logging.EnterpriseLogger) func() {
	sigChan := make(chan os.Signal, 4)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT, syscall.SIGUSR1)

	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				if sig == syscall.SIGUSR1 {
					logger.Log("WARN", "Получен SIGUSR1, текущее устройство будет пропущено")
					signals.Skip()
					continue
				}

				console.SignalCaught()

				if signals.AbortRequested() {
					logger.Log("FATAL", "Повторный сигнал, немедленный выход", "signal", sig.String())
					logger.Close() //nolint:errcheck
					os.Exit(app.ExitAborted)
				}

				logger.Log("WARN", "Получен сигнал, запуск прерывается", "signal", sig.String())
				signals.Abort()
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	if errors.Is(err, security.ErrNotRoot) {
		return app.ExitNotRoot
	}

	return app.ExitErrors
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(exitCodeFor(err))
	}

	os.Exit(app.ExitSuccess)
}
