package cli

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"

	"netnuke/internal/system"
	"netnuke/internal/units"
	"netnuke/internal/wipe"
)

// Console вывод для оператора; реализует wipe.Observer
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	renderer Renderer

	red    *color.Color
	yellow *color.Color
	green  *color.Color
	bold   *color.Color
}

var _ wipe.Observer = (*Console)(nil)

// NewConsole progress: auto, bar, line или none
func NewConsole(out, errOut io.Writer, progress string, useColor bool) *Console {
	c := &Console{
		out:      out,
		errOut:   errOut,
		renderer: NewRenderer(progress, out),
		red:      color.New(color.FgRed, color.Bold),
		yellow:   color.New(color.FgYellow),
		green:    color.New(color.FgGreen),
		bold:     color.New(color.Bold),
	}

	if !useColor {
		for _, col := range []*color.Color{c.red, c.yellow, c.green, c.bold} {
			col.DisableColor()
		}
	}

	return c
}

func (c *Console) OnProgress(ev wipe.ProgressEvent) {
	c.renderer.Progress(ev)
}

func (c *Console) OnEvent(ev wipe.Event) {
	c.renderer.Interrupt()

	c.mu.Lock()
	defer c.mu.Unlock()

	col := c.yellow
	if ev.IsError() {
		col = c.red
	}

	msg := fmt.Sprintf("%s: %s", ev.Device, ev.Message)
	if ev.Pass > 0 {
		msg = fmt.Sprintf("%s: pass %d: %s", ev.Device, ev.Pass, ev.Message)
	}

	if ev.IsError() {
		if ev.Error != "" {
			msg += fmt.Sprintf(" [offset %d: %s]", ev.Offset, ev.Error)
		} else {
			msg += fmt.Sprintf(" [offset %d]", ev.Offset)
		}
	}

	col.Fprintln(c.errOut, msg)
}

// Notice информационное сообщение
func (c *Console) Notice(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, format+"\n", args...)
}

// Warn предупреждение в stderr
func (c *Console) Warn(format string, args ...interface{}) {
	c.renderer.Interrupt()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.yellow.Fprintf(c.errOut, format+"\n", args...)
}

// Error ошибка в stderr
func (c *Console) Error(format string, args ...interface{}) {
	c.renderer.Interrupt()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.red.Fprintf(c.errOut, format+"\n", args...)
}

// SignalCaught затирает недописанную строку прогресса
func (c *Console) SignalCaught() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errOut, "\nSignal caught, cleaning up...\n")
	fmt.Fprintf(c.out, "%80s\n", "")
}

// PrintSettings параметры запуска в формате исходного CLI
func (c *Console) PrintSettings(cfg wipe.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mode := "DISABLED"
	if cfg.TestMode {
		mode = "ENABLED"
	}

	fmt.Fprintf(c.out, "Test mode:\t%s\n", mode)
	fmt.Fprintf(c.out, "Block size:\t%d\n", cfg.BlockSize)
	fmt.Fprintf(c.out, "Wipe method:\t%s\n", cfg.Level.Description())
	fmt.Fprintf(c.out, "Num. of passes:\t%d\n", cfg.Passes)
	fmt.Fprintf(c.out, "Write mode:\t%s\n", cfg.WriteMode)
}

// PrintStats статистика устройств
func (c *Console) PrintStats(stats system.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "IDE Devices:\t%d\nSCSI Devices:\t%d\nTotal Devices:\t%d\n\n", stats.IDE, stats.SCSI, stats.Total)
}

// PrintDevices таблица каталога
func (c *Console) PrintDevices(disks []system.DiskInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(disks) == 0 {
		fmt.Fprintln(c.out, "Устройства не найдены")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tTYPE\tSIZE\tMODEL\tSERIAL\tSTATE\tSIGNATURE")

	for _, d := range disks {
		state := "ok"
		switch {
		case !d.Usable:
			state = "unusable: " + d.Reason
		case d.ReadOnly:
			state = "read-only"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Path, d.Type, units.HumanBytes(d.Size), dash(d.Model), dash(d.Serial), state, dash(d.Signature))
	}

	_ = tw.Flush()
}

// PrintResults итог по устройствам
func (c *Console) PrintResults(reports []*wipe.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	c.bold.Fprintln(c.out, "Результаты:")

	for _, r := range reports {
		line := fmt.Sprintf("%s: %s, проходов %d/%d, записано %s, ошибок %d",
			r.Device, r.Status, r.PassesCompleted, r.Passes, units.HumanBytes(r.BytesWritten), r.ErrorCount())

		switch r.Status {
		case wipe.StatusCompleted:
			c.green.Fprintln(c.out, "✓ "+line)
		case wipe.StatusPartial, wipe.StatusSkipped:
			c.yellow.Fprintln(c.out, "⚠ "+line)
		default:
			c.red.Fprintln(c.out, "✗ "+line)
		}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
