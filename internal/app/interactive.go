package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"netnuke/internal/config"
	"netnuke/internal/reporting"
	"netnuke/internal/system"
	"netnuke/internal/units"
	"netnuke/internal/wipe"
)

// Пункты главного меню
const (
	menuWipe        = "🔒 Затереть устройства"
	menuDryRun      = "🧪 Тестовый запуск (scratch-файл)"
	menuList        = "💽 Список устройств"
	menuDiagnostics = "🩺 Диагностика"
	menuReports     = "📊 Отчёты"
	menuExit        = "🚪 Выход"
)

const profileNone = "без профиля"

type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// InteractiveMenu пошаговый мастер поверх App
type InteractiveMenu struct {
	app     *App
	out     io.Writer
	signals wipe.SkipAbortSource
	ask     askFunc
}

// NewInteractiveMenu signals общий источник пропуска/прерывания, его выставляет обработчик сигналов ОС
func NewInteractiveMenu(app *App, out io.Writer, signals wipe.SkipAbortSource) *InteractiveMenu {
	return &InteractiveMenu{
		app:     app,
		out:     out,
		signals: signals,
		ask:     survey.AskOne,
	}
}

// Run крутит главное меню до выхода или прерывания. Возвращает код выхода последнего запуска.
func (im *InteractiveMenu) Run(ctx context.Context) (int, error) {
	code := ExitSuccess

	for {
		if ctx.Err() != nil || im.signals.AbortRequested() {
			return ExitAborted, nil
		}

		choice := ""
		err := im.ask(&survey.Select{
			Message: fmt.Sprintf("NetNuke %s", reporting.Version),
			Options: []string{menuWipe, menuDryRun, menuList, menuDiagnostics, menuReports, menuExit},
		}, &choice)
		if errors.Is(err, terminal.InterruptErr) {
			return code, nil
		}
		if err != nil {
			return ExitErrors, err
		}

		if choice == menuExit {
			return code, nil
		}

		result, err := im.dispatch(ctx, choice)
		if result != nil {
			code = result.ExitCode
			if code == ExitAborted {
				return code, nil
			}
		}

		if err != nil {
			fmt.Fprintf(im.out, "\n❌ Ошибка: %v\n", err)
		}
	}
}

func (im *InteractiveMenu) dispatch(ctx context.Context, choice string) (*WipeResult, error) {
	switch choice {
	case menuWipe:
		return im.wipeDevices(ctx)
	case menuDryRun:
		return im.dryRun(ctx)
	case menuList:
		return nil, im.listDevices(ctx)
	case menuDiagnostics:
		return nil, im.diagnostics(ctx)
	case menuReports:
		return nil, im.reports()
	default:
		return nil, nil
	}
}

func (im *InteractiveMenu) wipeDevices(ctx context.Context) (*WipeResult, error) {
	disks, err := im.app.Devices(ctx)
	if err != nil {
		return nil, err
	}

	usable := system.Usable(disks)
	if len(usable) == 0 {
		return nil, wipe.ErrNoDevices
	}

	options := make([]string, len(usable))
	byOption := make(map[string]string, len(usable))

	for i, d := range usable {
		options[i] = fmt.Sprintf("%s %s %s", d.Path, units.HumanBytes(d.Size), d.Model)
		byOption[options[i]] = d.Path
	}

	var chosen []string
	if err := im.ask(&survey.MultiSelect{
		Message: "Устройства для затирания:",
		Options: options,
	}, &chosen, survey.WithValidator(survey.MinItems(1))); err != nil {
		return nil, err
	}

	if err := im.chooseProfile(); err != nil {
		return nil, err
	}

	paths := make([]string, len(chosen))
	for i, opt := range chosen {
		paths[i] = byOption[opt]
	}

	im.app.config.Wipe.TestMode = false

	return im.app.Wipe(ctx, paths, im.signals)
}

func (im *InteractiveMenu) dryRun(ctx context.Context) (*WipeResult, error) {
	if err := im.chooseProfile(); err != nil {
		return nil, err
	}

	im.app.config.Wipe.TestMode = true

	result, err := im.app.Wipe(ctx, nil, im.signals)
	if err == nil {
		fmt.Fprintf(im.out, "\n✅ Тестовый запуск завершён, цель %s\n", im.app.config.Wipe.TestTarget)
	}

	return result, err
}

func (im *InteractiveMenu) chooseProfile() error {
	profile := profileNone

	if err := im.ask(&survey.Select{
		Message: "Профиль:",
		Options: []string{profileNone, "quick", "standard", "thorough", "paranoid"},
		Default: profileNone,
	}, &profile); err != nil {
		return err
	}

	if profile == profileNone {
		return nil
	}

	if err := config.ApplyProfile(im.app.config, profile); err != nil {
		return err
	}

	im.app.Profile = profile

	return nil
}

func (im *InteractiveMenu) listDevices(ctx context.Context) error {
	disks, err := im.app.Devices(ctx)
	if err != nil {
		return err
	}

	im.app.console.PrintDevices(disks)

	return nil
}

func (im *InteractiveMenu) diagnostics(ctx context.Context) error {
	diag, err := im.app.Diagnose(ctx, system.LevelFull, "")
	if err != nil {
		return err
	}

	for _, r := range diag.Results {
		fmt.Fprintf(im.out, "[%s] %-12s %s\n", r.Status, r.Test, r.Message)
	}

	fmt.Fprintf(im.out, "Итог: %s\n", diag.Overall)

	return nil
}

func (im *InteractiveMenu) reports() error {
	agg, err := im.app.Reports("")
	if err != nil {
		return err
	}

	return reporting.WriteAggregatedSummary(im.out, agg)
}
