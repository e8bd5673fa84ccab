package wipe

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Ошибки движка
var (
	ErrOpenFailed    = errors.New("не удалось открыть цель")
	ErrSeekFailed    = errors.New("не удалось позиционироваться")
	ErrShortWrite    = errors.New("неполная запись")
	ErrConfigInvalid = errors.New("некорректная конфигурация")
	ErrAborted       = errors.New("запуск прерван")
)

// WriteErrorClass класс ошибки записи, определяет способ восстановления
type WriteErrorClass string

const (
	ClassMisaligned  WriteErrorClass = "MISALIGNED"
	ClassDeviceGone  WriteErrorClass = "DEVICE_GONE"
	ClassMediumError WriteErrorClass = "MEDIUM_ERROR"
	ClassNoSpace     WriteErrorClass = "NO_SPACE"
	ClassOther       WriteErrorClass = "OTHER"
)

// ClassifyWriteError сопоставляет ошибку ОС с классом восстановления
func ClassifyWriteError(err error) WriteErrorClass {
	switch {
	case err == nil:
		return ClassOther
	case errors.Is(err, unix.EINVAL):
		return ClassMisaligned
	case errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENOMEDIUM):
		return ClassDeviceGone
	case errors.Is(err, unix.EIO):
		return ClassMediumError
	case errors.Is(err, unix.ENOSPC), errors.Is(err, unix.EFBIG):
		return ClassNoSpace
	default:
		return ClassOther
	}
}

// WriteError неполная или неудачная запись блока
type WriteError struct {
	Class   WriteErrorClass
	Offset  int64
	Written int
	Want    int
	Err     error
}

func newWriteError(offset int64, written, want int, err error) *WriteError {
	if err == nil {
		err = io.ErrShortWrite
	}

	return &WriteError{
		Class:   ClassifyWriteError(err),
		Offset:  offset,
		Written: written,
		Want:    want,
		Err:     err,
	}
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: записано %d из %d байт на смещении %d (%s): %v", ErrShortWrite, e.Written, e.Want, e.Offset, e.Class, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrShortWrite, e.Err}
}
