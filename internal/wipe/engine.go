package wipe

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoDevices нечего затирать
var ErrNoDevices = errors.New("нет устройств для затирания")

// Logger интерфейс логгера в стиле key/value (logging.EnterpriseLogger)
type Logger interface {
	Log(level, message string, fields ...interface{})
}

// Observer получает прогресс и события движка. Вызывается из горутины движка.
type Observer interface {
	OnProgress(ProgressEvent)
	OnEvent(Event)
}

// Recorder принимает метрики движка
type Recorder interface {
	BytesWritten(device string, n uint64)
	WriteError(class WriteErrorClass)
	PassFinished(outcome string, seconds float64)
	BlockSizeDowngraded(device string)
}

type nopObserver struct{}

func (nopObserver) OnProgress(ProgressEvent) {}
func (nopObserver) OnEvent(Event) {}

type nopRecorder struct{}

func (nopRecorder) BytesWritten(string, uint64) {}
func (nopRecorder) WriteError(WriteErrorClass) {}
func (nopRecorder) PassFinished(string, float64) {}
func (nopRecorder) BlockSizeDowngraded(string) {}

type nopLogger struct{}

func (nopLogger) Log(string, string, ...interface{}) {}

// WipeEngine проводит устройства через проходы записи
type WipeEngine struct {
	logger   Logger
	opener   Opener
	filler   Filler
	observer Observer
	recorder Recorder
	tracker  ProgressTracker
}

// Option настраивает WipeEngine
type Option func(*WipeEngine)

// WithOpener подменяет способ открытия цели (тесты, обёртки)
func WithOpener(o Opener) Option {
	return func(we *WipeEngine) { we.opener = o }
}

// WithFiller подменяет источник данных
func WithFiller(f Filler) Option {
	return func(we *WipeEngine) { we.filler = f }
}

// WithObserver задаёт получателя прогресса
func WithObserver(o Observer) Option {
	return func(we *WipeEngine) { we.observer = o }
}

// WithRecorder задаёт сборщик метрик
func WithRecorder(r Recorder) Option {
	return func(we *WipeEngine) { we.recorder = r }
}

// NewWipeEngine creates new wipe engine
func NewWipeEngine(logger Logger, opts ...Option) *WipeEngine {
	we := &WipeEngine{
		logger:   logger,
		opener:   FileOpener{},
		filler:   NewPatternSource(),
		observer: nopObserver{},
		recorder: nopRecorder{},
	}

	if we.logger == nil {
		we.logger = nopLogger{}
	}

	for _, opt := range opts {
		opt(we)
	}

	return we
}

// SetObserver меняет получателя прогресса между запусками
func (we *WipeEngine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}

	we.observer = o
}

// Run затирает одно устройство. Ошибка возвращается только для некорректной
// конфигурации, невозможности выделить буфер и прерывания запуска (ErrAborted);
// всё остальное попадает в отчёт.
func (we *WipeEngine) Run(ctx context.Context, dev Device, cfg Config, signals SkipAbortSource) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if signals == nil {
		signals = &Signals{}
	}

	return newDeviceRun(we, dev, cfg, signals).execute(ctx)
}

// RunAll затирает устройства по порядку каталога и останавливается только при прерывании
func (we *WipeEngine) RunAll(ctx context.Context, devices []Device, cfg Config, signals SkipAbortSource) ([]*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	if signals == nil {
		signals = &Signals{}
	}

	we.logger.Log("INFO", "Параметры затирания",
		"test_mode", cfg.TestMode,
		"block_size", cfg.BlockSize,
		"method", cfg.Level.Description(),
		"passes", cfg.Passes,
		"write_mode", cfg.WriteMode.String(),
		"devices", len(devices))

	reports := make([]*Report, 0, len(devices))

	for _, dev := range devices {
		if signals.AbortRequested() || ctx.Err() != nil {
			we.logger.Log("WARN", "Запуск прерван до начала устройства", "device", dev.Path)
			return reports, ErrAborted
		}

		report, err := we.Run(ctx, dev, cfg, signals)
		if report != nil {
			reports = append(reports, report)
		}

		if err != nil {
			return reports, fmt.Errorf("%s: %w", dev.Path, err)
		}
	}

	return reports, nil
}
