package wipe

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"netnuke/internal/units"
)

// deviceRun состояние затирания одного устройства
type deviceRun struct {
	engine  *WipeEngine
	cfg     Config
	dev     Device
	signals SkipAbortSource

	name   string
	target string
	size   uint64
	mode   OpenMode
	buf    []byte
	report *Report
}

func newDeviceRun(we *WipeEngine, dev Device, cfg Config, signals SkipAbortSource) *deviceRun {
	r := &deviceRun{
		engine:  we,
		cfg:     cfg,
		dev:     dev,
		signals: signals,
		name:    dev.Name,
		target:  dev.Path,
		size:    dev.Size,
		mode: OpenMode{
			Truncate:  true,
			Exclusive: true,
			Async:     cfg.WriteMode == WriteAsync,
		},
	}

	if r.name == "" {
		r.name = filepath.Base(dev.Path)
	}

	// тестовый режим никогда не трогает настоящее устройство
	if cfg.TestMode {
		r.target = cfg.TestTarget
		r.size = cfg.TestSize
		r.mode.Exclusive = false
		r.mode.Create = true
	}

	r.report = &Report{
		Device:     dev.Path,
		Target:     r.target,
		TargetSize: r.size,
		Level:      cfg.Level,
		Passes:     cfg.Passes,
		BlockSize:  cfg.BlockSize,
		StartTime:  time.Now(),
	}

	return r
}

// execute выполняет полный цикл проходов для устройства
func (r *deviceRun) execute(ctx context.Context) (*Report, error) {
	logger := r.engine.logger
	defer r.finish()

	if !r.cfg.TestMode && !r.dev.Usable {
		r.event(0, EventDeviceSkipped, "", 0, "устройство непригодно для записи", nil)
		r.report.Status = StatusSkipped
		return r.report, nil
	}

	if r.size == 0 {
		r.event(0, EventDeviceSkipped, "", 0, "нулевой размер цели", nil)
		r.report.Status = StatusSkipped
		return r.report, nil
	}

	r.buf = GetBuffer(r.cfg.BlockSize)
	if r.buf == nil {
		return r.report, fmt.Errorf("не удалось выделить буфер записи %d байт", r.cfg.BlockSize)
	}
	defer PutBuffer(r.buf)

	logger.Log("INFO", fmt.Sprintf("Wiping %s: %d bytes (%s)", r.target, r.size, units.HumanBytes(r.size)),
		"device", r.dev.Path, "level", r.cfg.Level.String(), "passes", r.cfg.Passes)

	blockSize := r.cfg.BlockSize

	for pass := 1; pass <= r.cfg.Passes; pass++ {
		if r.cfg.BlockSizePolicy == BlockSizeReset {
			blockSize = r.cfg.BlockSize
		}

		logger.Log("INFO", "Проход затирания", "device", r.dev.Path, "pass", pass, "total", r.cfg.Passes, "block_size", blockSize)

		ps := newPassState(pass, blockSize)
		outcome := r.runPass(ctx, ps)

		r.report.BytesWritten += ps.BytesWritten
		r.report.BlockSize = ps.BlockSize
		blockSize = ps.BlockSize

		r.engine.recorder.BytesWritten(r.dev.Path, ps.BytesWritten)
		r.engine.recorder.PassFinished(outcome.String(), time.Since(ps.StartTime).Seconds())

		switch outcome {
		case passCompleted:
			r.report.PassesCompleted++
			logger.Log("INFO", "Проход завершён", "device", r.dev.Path, "pass", pass, "bytes", ps.BytesWritten)
		case passAbandoned:
			logger.Log("WARN", "Проход брошен, переходим к следующему", "device", r.dev.Path, "pass", pass)
		case passDeviceFatal:
			logger.Log("ERROR", "Устройство пропускается после ошибки", "device", r.dev.Path, "pass", pass)
			return r.report, nil
		case passSkipped:
			r.report.Status = StatusSkipped
			logger.Log("WARN", "Устройство пропущено оператором", "device", r.dev.Path, "pass", pass)
			return r.report, nil
		case passAborted:
			r.report.Status = StatusAborted
			logger.Log("WARN", "Запуск прерван", "device", r.dev.Path, "pass", pass)
			return r.report, ErrAborted
		}
	}

	return r.report, nil
}

// finish выставляет итоговый статус, если он не задан явно
func (r *deviceRun) finish() {
	rep := r.report
	rep.EndTime = time.Now()
	rep.Duration = rep.EndTime.Sub(rep.StartTime)
	rep.FullyWiped = rep.PassesCompleted == rep.Passes && rep.ErrorCount() == 0

	if rep.Status != "" {
		return
	}

	switch {
	case rep.FullyWiped:
		rep.Status = StatusCompleted
	case rep.PassesCompleted > 0 || rep.BytesWritten > 0:
		rep.Status = StatusPartial
	default:
		rep.Status = StatusFailed
	}
}

func (r *deviceRun) open(mode OpenMode) (Target, error) {
	t, err := r.engine.opener.Open(r.target, mode)
	if err != nil {
		return nil, err
	}

	if r.cfg.MaxSpeedMBps > 0 {
		return NewThrottledWriter(t, r.cfg.MaxSpeedMBps), nil
	}

	return t, nil
}

func (r *deviceRun) closeTarget(pass int, t Target) {
	if t == nil {
		return
	}

	if err := t.Close(); err != nil {
		r.engine.logger.Log("WARN", "Ошибка закрытия цели", "device", r.dev.Path, "pass", pass, "error", err.Error())
	}
}

func (r *deviceRun) fill(buf []byte) {
	r.engine.filler.Fill(buf, r.cfg.Level)

	if d, ok := r.engine.logger.(interface{ DebugEnabled() bool }); ok && d.DebugEnabled() {
		r.engine.logger.Log("DEBUG", "Буфер заполнен", "device", r.dev.Path, "bytes", len(buf),
			"head", hex.EncodeToString(buf[:min(16, len(buf))]))
	}
}

func (r *deviceRun) progress(ps *PassState, final bool) {
	snap := r.engine.tracker.Update(ps.BytesWritten, r.size, time.Since(ps.StartTime).Seconds())

	r.engine.observer.OnProgress(ProgressEvent{
		Device:     r.name,
		Pass:       ps.Pass,
		Passes:     r.cfg.Passes,
		Block:      ps.BlockIndex,
		BlockCount: ps.BlockCount,
		Final:      final,
		Snapshot:   snap,
	})
}

// event записывает событие в отчёт, лог и UI
func (r *deviceRun) event(pass int, kind EventKind, class WriteErrorClass, offset int64, message string, err error) {
	ev := Event{
		Time:    time.Now(),
		Device:  r.dev.Path,
		Pass:    pass,
		Kind:    kind,
		Class:   class,
		Offset:  offset,
		Message: message,
	}

	fields := []interface{}{"device", r.dev.Path, "pass", pass, "offset", offset, "kind", string(kind)}
	if class != "" {
		fields = append(fields, "class", string(class))
	}

	if err != nil {
		ev.Error = err.Error()
		fields = append(fields, "error", ev.Error)
	}

	r.report.Events = append(r.report.Events, ev)

	level := "WARN"
	if ev.IsError() {
		level = "ERROR"
	}

	r.engine.logger.Log(level, message, fields...)
	r.engine.observer.OnEvent(ev)
}
