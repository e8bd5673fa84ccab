package wipe

import (
	"context"
	"fmt"
	"io"
	"time"
)

// PassState состояние одного прохода по устройству
type PassState struct {
	Pass         int
	BlockIndex   uint64
	BlockCount   uint64
	BlockSize    int
	BytesWritten uint64
	Offset       int64 // подтверждённая позиция записи
	Recoveries   int
	StartTime    time.Time
}

func newPassState(pass, blockSize int) *PassState {
	return &PassState{
		Pass:      pass,
		BlockSize: blockSize,
		StartTime: time.Now(),
	}
}

type passOutcome int

const (
	passCompleted passOutcome = iota
	passAbandoned
	passDeviceFatal
	passSkipped
	passAborted
)

func (o passOutcome) String() string {
	switch o {
	case passCompleted:
		return "completed"
	case passAbandoned:
		return "abandoned"
	case passDeviceFatal:
		return "device_fatal"
	case passSkipped:
		return "skipped"
	case passAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// recoveryAction что делать после ошибки записи
type recoveryAction int

const (
	actionNextBlock recoveryAction = iota
	actionResume
	actionAbandonPass
	actionAbandonDevice
)

// runPass открывает цель, пишет blockCount блоков и закрывает цель
func (r *deviceRun) runPass(ctx context.Context, ps *PassState) passOutcome {
	t, err := r.open(r.mode)
	if err != nil {
		r.event(ps.Pass, EventOpenFailed, "", 0, fmt.Sprintf("Не удалось открыть %s, устройство пропускается", r.target),
			fmt.Errorf("%w: %w", ErrOpenFailed, err))
		return passDeviceFatal
	}
	// t может быть заменён при восстановлении
	defer func() { r.closeTarget(ps.Pass, t) }()

	if pos, err := t.Seek(0, io.SeekStart); err != nil || pos != 0 {
		if err == nil {
			err = fmt.Errorf("позиция %d вместо 0", pos)
		}

		r.event(ps.Pass, EventSeekFailed, "", 0, "Не удалось перейти к началу устройства",
			fmt.Errorf("%w: %w", ErrSeekFailed, err))
		return passDeviceFatal
	}

	if !RefillEachBlock(r.cfg.Level) {
		r.fill(r.buf[:ps.BlockSize])
	}

	ps.BlockCount = r.size / uint64(ps.BlockSize)
	retainer := Retainer{Every: r.cfg.Retainer}

	for {
		if ps.BlockIndex >= ps.BlockCount {
			r.progress(ps, true)
			return passCompleted
		}

		if r.signals.SkipRequested() {
			r.event(ps.Pass, EventDeviceSkipped, "", ps.Offset, "Пропуск устройства по запросу оператора", nil)
			return passSkipped
		}

		if r.signals.AbortRequested() || ctx.Err() != nil {
			r.event(ps.Pass, EventRunAborted, "", ps.Offset, "Прерывание запуска по запросу оператора", ctx.Err())
			return passAborted
		}

		block := r.buf[:ps.BlockSize]
		if RefillEachBlock(r.cfg.Level) {
			r.fill(block)
		}

		n, err := t.Write(block)
		if n > 0 {
			ps.Offset += int64(n)
			ps.BytesWritten += uint64(n)
		}

		if err == nil && n == len(block) {
			ps.BlockIndex++
			if ps.BlockIndex < ps.BlockCount && retainer.ShouldEmit(ps.BlockIndex, false) {
				r.progress(ps, false)
			}
			continue
		}

		werr := newWriteError(ps.Offset, n, len(block), err)
		r.engine.recorder.WriteError(werr.Class)

		var action recoveryAction
		t, action = r.recover(ps, t, werr)

		switch action {
		case actionResume:
		case actionNextBlock:
			ps.BlockIndex++
		case actionAbandonPass:
			return passAbandoned
		case actionAbandonDevice:
			return passDeviceFatal
		}
	}
}

// recover применяет таблицу восстановления к ошибке записи
func (r *deviceRun) recover(ps *PassState, t Target, werr *WriteError) (Target, recoveryAction) {
	switch werr.Class {
	case ClassMisaligned:
		return r.recoverMisaligned(ps, t, werr)

	case ClassDeviceGone:
		r.event(ps.Pass, EventShortWrite, werr.Class, werr.Offset, "Устройство недоступно, оставшиеся проходы пропускаются", werr)
		return t, actionAbandonDevice

	case ClassMediumError:
		next := werr.Offset + 1
		pos, err := t.Seek(next, io.SeekStart)
		if err != nil {
			r.event(ps.Pass, EventPassAbandoned, werr.Class, werr.Offset, "Не удалось обойти сбойный участок",
				fmt.Errorf("%w: %w", ErrSeekFailed, err))
			return t, actionAbandonPass
		}

		ps.Offset = pos
		r.event(ps.Pass, EventBadRegionSkipped, werr.Class, werr.Offset,
			fmt.Sprintf("Ошибка носителя, переход со смещения %d на %d", werr.Offset, pos), werr)
		return t, actionNextBlock

	case ClassNoSpace:
		r.event(ps.Pass, EventPassAbandoned, werr.Class, werr.Offset, "Нет места на цели, проход брошен", werr)
		return t, actionAbandonPass

	default:
		r.event(ps.Pass, EventShortWrite, werr.Class, werr.Offset, "write() вернул неполный размер", werr)
		return t, actionNextBlock
	}
}

// recoverMisaligned понижает размер блока, переоткрывает цель и продолжает с подтверждённой позиции
func (r *deviceRun) recoverMisaligned(ps *PassState, t Target, werr *WriteError) (Target, recoveryAction) {
	safe := r.cfg.SafeBlockSize

	if ps.BlockSize <= safe {
		r.event(ps.Pass, EventPassAbandoned, werr.Class, werr.Offset,
			fmt.Sprintf("Размер блока %d уже минимальный, проход брошен", ps.BlockSize), werr)
		return t, actionAbandonPass
	}

	if ps.Recoveries >= r.cfg.MaxRecoveries {
		r.event(ps.Pass, EventPassAbandoned, werr.Class, werr.Offset,
			fmt.Sprintf("Исчерпан лимит восстановлений (%d), проход брошен", r.cfg.MaxRecoveries), werr)
		return t, actionAbandonPass
	}

	ps.Recoveries++
	r.closeTarget(ps.Pass, t)

	// без O_TRUNC: уже записанное в этом проходе остаётся
	mode := r.mode
	mode.Truncate = false
	mode.Create = false

	nt, err := r.open(mode)
	if err != nil {
		r.event(ps.Pass, EventPassAbandoned, werr.Class, ps.Offset, "Не удалось переоткрыть цель, проход брошен",
			fmt.Errorf("%w: %w", ErrOpenFailed, err))
		return nil, actionAbandonPass
	}

	if pos, err := nt.Seek(ps.Offset, io.SeekStart); err != nil || pos != ps.Offset {
		if err == nil {
			err = fmt.Errorf("позиция %d вместо %d", pos, ps.Offset)
		}

		r.event(ps.Pass, EventPassAbandoned, werr.Class, ps.Offset, "Не удалось вернуться к подтверждённой позиции, проход брошен",
			fmt.Errorf("%w: %w", ErrSeekFailed, err))
		return nt, actionAbandonPass
	}

	old := ps.BlockSize
	ps.BlockSize = safe
	ps.BlockIndex = uint64(ps.Offset) / uint64(safe)
	ps.BlockCount = r.size / uint64(safe)

	r.engine.recorder.BlockSizeDowngraded(r.dev.Path)
	r.event(ps.Pass, EventBlockSizeDowngrade, werr.Class, ps.Offset,
		fmt.Sprintf("Размер блока понижен с %d до %d, продолжение со смещения %d", old, safe, ps.Offset), werr)

	return nt, actionResume
}
