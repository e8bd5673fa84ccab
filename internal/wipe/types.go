package wipe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NukeLevel определяет, какими данными затирается носитель
type NukeLevel int

const (
	LevelZero          NukeLevel = iota // 0: нули (быстрое затирание)
	LevelStaticPattern                  // 1: статические паттерны 0xA0, 0xB0, ...
	LevelRandomFast                     // 2: один случайный буфер на проход
	LevelRandomSlow                     // 3: новый случайный буфер перед каждой записью
	LevelRewrite                        // 4: зарезервировано, не реализовано
)

var levelNames = map[NukeLevel]string{
	LevelZero:          "zero",
	LevelStaticPattern: "pattern",
	LevelRandomFast:    "random-fast",
	LevelRandomSlow:    "random-slow",
	LevelRewrite:       "rewrite",
}

func (l NukeLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return fmt.Sprintf("level(%d)", int(l))
}

// Description возвращает человекочитаемое название метода
func (l NukeLevel) Description() string {
	switch l {
	case LevelZero:
		return "Zeroing"
	case LevelStaticPattern:
		return "Pattern"
	case LevelRandomFast:
		return "Fast Random"
	case LevelRandomSlow:
		return "Slow Random"
	default:
		return "Unknown"
	}
}

// ParseNukeLevel принимает имя уровня или его номер.
// Номера больше 4 трактуются как паттерн, как в исходном CLI.
func ParseNukeLevel(s string) (NukeLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(s); err == nil {
		switch {
		case n < 0:
			return 0, fmt.Errorf("%w: отрицательный уровень затирания %d", ErrConfigInvalid, n)
		case n > int(LevelRewrite):
			return LevelStaticPattern, nil
		default:
			return NukeLevel(n), nil
		}
	}

	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}

	return 0, fmt.Errorf("%w: неизвестный уровень затирания %q", ErrConfigInvalid, s)
}

// WriteMode режим открытия цели
type WriteMode int

const (
	WriteSync WriteMode = iota
	WriteAsync
)

func (m WriteMode) String() string {
	if m == WriteAsync {
		return "ASYNC"
	}

	return "SYNC"
}

// ParseWriteMode принимает "sync"/"async" или 0/1
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "sync":
		return WriteSync, nil
	case "1", "async":
		return WriteAsync, nil
	default:
		return 0, fmt.Errorf("%w: неизвестный режим записи %q", ErrConfigInvalid, s)
	}
}

// BlockSizePolicy определяет размер блока после понижения из-за EINVAL
type BlockSizePolicy string

const (
	// BlockSizeReset: каждый проход начинается с настроенного размера блока
	BlockSizeReset BlockSizePolicy = "reset"
	// BlockSizePersist: пониженный размер сохраняется до конца устройства
	BlockSizePersist BlockSizePolicy = "persist"
)

// Device носитель из каталога. Движок его только читает.
type Device struct {
	Path   string
	Name   string
	Size   uint64
	Usable bool
}

// Status итог работы с устройством
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusPartial   Status = "PARTIAL"
	StatusSkipped   Status = "SKIPPED"
	StatusAborted   Status = "ABORTED"
	StatusFailed    Status = "FAILED"
)

// EventKind тип события, попадающего в отчёт
type EventKind string

const (
	EventOpenFailed         EventKind = "OPEN_FAILED"
	EventSeekFailed         EventKind = "SEEK_FAILED"
	EventShortWrite         EventKind = "SHORT_WRITE"
	EventBlockSizeDowngrade EventKind = "BLOCK_SIZE_DOWNGRADE"
	EventBadRegionSkipped   EventKind = "BAD_REGION_SKIPPED"
	EventPassAbandoned      EventKind = "PASS_ABANDONED"
	EventDeviceSkipped      EventKind = "DEVICE_SKIPPED"
	EventRunAborted         EventKind = "RUN_ABORTED"
)

// Event ошибка или заметное действие движка
type Event struct {
	Time    time.Time       `json:"time"`
	Device  string          `json:"device"`
	Pass    int             `json:"pass"`
	Kind    EventKind       `json:"kind"`
	Class   WriteErrorClass `json:"class,omitempty"`
	Offset  int64           `json:"offset"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
}

// IsError отличает ошибки от информационных событий
func (e Event) IsError() bool {
	switch e.Kind {
	case EventOpenFailed, EventSeekFailed, EventShortWrite, EventBadRegionSkipped, EventPassAbandoned:
		return true
	default:
		return false
	}
}

// Report итог работы движка с одним устройством
type Report struct {
	Device          string        `json:"device"`
	Target          string        `json:"target"`
	TargetSize      uint64        `json:"target_size"`
	Level           NukeLevel     `json:"level"`
	Passes          int           `json:"passes"`
	PassesCompleted int           `json:"passes_completed"`
	BlockSize       int           `json:"block_size"`
	BytesWritten    uint64        `json:"bytes_written"`
	Status          Status        `json:"status"`
	FullyWiped      bool          `json:"fully_wiped"`
	Events          []Event       `json:"events,omitempty"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
}

// ErrorCount количество ошибок среди событий
func (r *Report) ErrorCount() int {
	count := 0
	for _, ev := range r.Events {
		if ev.IsError() {
			count++
		}
	}

	return count
}

// SpeedMBps средняя скорость за всё время работы с устройством
func (r *Report) SpeedMBps() float64 {
	if r.Duration <= 0 {
		return 0
	}

	return float64(r.BytesWritten) / (1024 * 1024) / r.Duration.Seconds()
}

// ProgressEvent снимок прогресса прохода для UI
type ProgressEvent struct {
	Device     string
	Pass       int
	Passes     int
	Block      uint64
	BlockCount uint64
	Final      bool
	Snapshot
}
