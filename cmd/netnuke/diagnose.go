package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"netnuke/internal/system"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Предполётная самодиагностика",
	Example: `  netnuke diagnose
  netnuke diagnose --full --output diag.json
  netnuke diagnose --test wipe`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().Bool("full", false, "Полная диагностика, включая пробное затирание")
	diagnoseCmd.Flags().String("test", "", "Конкретный тест (permissions/disks/memory/cpu/paths/wipe)")
	diagnoseCmd.Flags().String("output", "", "Сохранить отчёт в файл")
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	full, _ := cmd.Flags().GetBool("full")
	testName, _ := cmd.Flags().GetString("test")
	output, _ := cmd.Flags().GetString("output")

	level := system.LevelQuick
	if full {
		level = system.LevelFull
	}

	var test system.DiagnosticTest
	if testName != "" {
		switch t := system.DiagnosticTest(testName); t {
		case system.TestPermissions, system.TestDisks, system.TestMemory, system.TestCPU, system.TestPaths, system.TestWipe:
			test = t
		default:
			return fmt.Errorf("неизвестный тест: %s", testName)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, err := setup(cfg)
	if err != nil {
		return err
	}
	defer deps.logger.Close() //nolint:errcheck

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Запуск диагностики системы (уровень: %s)\n", level)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	diagnostics, err := deps.app.Diagnose(ctx, level, test)
	if err != nil {
		return fmt.Errorf("ошибка выполнения диагностики: %w", err)
	}

	for _, r := range diagnostics.Results {
		fmt.Fprintf(out, "[%s] %-12s %s (%v)\n", r.Status, r.Test, r.Message, r.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(out, "\nИтог: %s (пройдено %d, предупреждений %d, ошибок %d)\n", diagnostics.Overall,
		diagnostics.Summary.Passed, diagnostics.Summary.Warnings, diagnostics.Summary.Failed)

	if output != "" {
		if err := system.SaveDiagnostics(diagnostics, output); err != nil {
			return err
		}

		fmt.Fprintf(out, "Отчёт сохранён: %s\n", output)
	}

	if diagnostics.Summary.Failed > 0 {
		return fmt.Errorf("диагностика выявила %d ошибок", diagnostics.Summary.Failed)
	}

	return nil
}
