package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"netnuke/internal/wipe"
)

// Renderer выводит прогресс прохода
type Renderer interface {
	Progress(ev wipe.ProgressEvent)
	// Interrupt освобождает строку перед выводом сообщения
	Interrupt()
}

// NewRenderer выбирает способ вывода: bar, line, none или auto (bar только на терминале)
func NewRenderer(mode string, w io.Writer) Renderer {
	switch mode {
	case "bar":
		return NewBarRenderer(w)
	case "line":
		return NewLineRenderer(w)
	case "none":
		return nopRenderer{}
	default:
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return NewBarRenderer(w)
		}

		return NewLineRenderer(w)
	}
}

type nopRenderer struct{}

func (nopRenderer) Progress(wipe.ProgressEvent) {}
func (nopRenderer) Interrupt()                  {}

// LineRenderer переписывает одну строку через \r
type LineRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	inLine bool
}

func NewLineRenderer(w io.Writer) *LineRenderer {
	return &LineRenderer{w: w}
}

// FormatProgress строка прогресса: "sda: pass 2 \t10 of 20 blocks    [ 5.0K / 50.0% / 1.0M/s ]"
func FormatProgress(ev wipe.ProgressEvent) string {
	pass := ""
	if ev.Passes > 1 {
		pass = fmt.Sprintf("pass %d ", ev.Pass)
	}

	return fmt.Sprintf("%s: %s\t%d of %d blocks    [ %s / %3.1f%% / %s/s ]",
		ev.Device, pass, ev.Block, ev.BlockCount, ev.HumanWritten, ev.Percent, ev.HumanThroughput)
}

func (r *LineRenderer) Progress(ev wipe.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprint(r.w, FormatProgress(ev)+"\r")
	r.inLine = true

	if ev.Final {
		fmt.Fprintln(r.w)
		r.inLine = false
	}
}

func (r *LineRenderer) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inLine {
		fmt.Fprintln(r.w)
		r.inLine = false
	}
}

// BarRenderer рисует полосу на каждый проход
type BarRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	bar    *progressbar.ProgressBar
	device string
	pass   int
}

func NewBarRenderer(w io.Writer) *BarRenderer {
	return &BarRenderer{w: w}
}

func (r *BarRenderer) Progress(ev wipe.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil || r.device != ev.Device || r.pass != ev.Pass {
		r.finish()

		desc := ev.Device
		if ev.Passes > 1 {
			desc = fmt.Sprintf("%s: pass %d/%d", ev.Device, ev.Pass, ev.Passes)
		}

		r.bar = progressbar.NewOptions64(int64(ev.TotalBytes),
			progressbar.OptionSetWriter(r.w),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(r.w) }),
		)
		r.device, r.pass = ev.Device, ev.Pass
	}

	_ = r.bar.Set64(int64(ev.BytesWritten))

	if ev.Final {
		r.finish()
	}
}

func (r *BarRenderer) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		fmt.Fprintln(r.w)
	}
}

func (r *BarRenderer) finish() {
	if r.bar == nil {
		return
	}

	if !r.bar.IsFinished() {
		_ = r.bar.Exit()
		fmt.Fprintln(r.w)
	}

	r.bar = nil
}
