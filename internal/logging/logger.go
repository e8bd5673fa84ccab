package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netnuke/internal/config"
)

// Уровни в порядке возрастания важности
var levels = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3, "FATAL": 4}

// EnterpriseLogger журнал запуска поверх zap.
// Каждая запись получает номер строки seq и время от старта elapsed.
type EnterpriseLogger struct {
	level string
	zap   *zap.Logger
	file  *os.File
	start time.Time
	seq   atomic.Uint64
}

// NewEnterpriseLogger пишет в stderr и, если задан logging.file, в файл.
// На консоль без verbose попадают только WARN и выше.
func NewEnterpriseLogger(cfg *config.Config, verbose bool) (*EnterpriseLogger, error) {
	level := strings.ToUpper(cfg.Logging.Level)
	if _, ok := levels[level]; !ok {
		return nil, fmt.Errorf("неизвестный уровень логирования: %s", cfg.Logging.Level)
	}

	consoleLevel := zapcore.WarnLevel
	if verbose {
		consoleLevel = zapLevel(level)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	l := &EnterpriseLogger{level: level, start: time.Now()}

	// Автоматическое создание директории для логов
	if cfg.Logging.File != "" {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			// Если не можем открыть файл логов, остаётся только консоль
			fmt.Fprintf(os.Stderr, "[WARN] %v, логи будут выводиться только в stderr\n", err)
		} else {
			l.file = f

			var enc zapcore.Encoder
			if cfg.Logging.Structured {
				prodCfg := zap.NewProductionEncoderConfig()
				prodCfg.EncodeTime = zapcore.ISO8601TimeEncoder
				enc = zapcore.NewJSONEncoder(prodCfg)
			} else {
				enc = zapcore.NewConsoleEncoder(encCfg)
			}

			cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), zapLevel(level)))
		}
	}

	l.zap = zap.New(zapcore.NewTee(cores...))

	return l, nil
}

// NewFromZap оборачивает готовый zap-логгер
func NewFromZap(z *zap.Logger, level string) *EnterpriseLogger {
	level = strings.ToUpper(level)
	if _, ok := levels[level]; !ok {
		level = "INFO"
	}

	return &EnterpriseLogger{level: level, zap: z, start: time.Now()}
}

func openLogFile(path string) (*os.File, error) {
	logDir := filepath.Dir(path)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию логов %s: %w", logDir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл логов %s: %w", path, err)
	}

	return f, nil
}

// Log пишет запись; fields чередуют ключи и значения
func (l *EnterpriseLogger) Log(level, message string, fields ...interface{}) {
	level = strings.ToUpper(level)
	if !l.shouldLog(level) {
		return
	}

	zfields := make([]zap.Field, 0, len(fields)/2+3)
	zfields = append(zfields,
		zap.Uint64("seq", l.seq.Add(1)),
		zap.Float64("elapsed", time.Since(l.start).Seconds()),
	)

	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			zfields = append(zfields, zap.Any("extra", fields[i]))
			break
		}

		zfields = append(zfields, zap.Any(key, fields[i+1]))
	}

	// FATAL не завершает процесс: решение о выходе принимает вызывающий
	if level == "FATAL" {
		zfields = append(zfields, zap.Bool("fatal", true))
	}

	if ce := l.zap.Check(zapLevel(level), message); ce != nil {
		ce.Write(zfields...)
	}
}

func (l *EnterpriseLogger) shouldLog(level string) bool {
	target, ok := levels[level]
	if !ok {
		target = levels["INFO"]
	}

	return target >= levels[l.level]
}

// DebugEnabled включает дорогие отладочные записи движка
func (l *EnterpriseLogger) DebugEnabled() bool {
	return l.level == "DEBUG"
}

// Zap отдаёт нижележащий логгер для библиотек
func (l *EnterpriseLogger) Zap() *zap.Logger {
	return l.zap
}

func (l *EnterpriseLogger) Close() error {
	_ = l.zap.Sync()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR", "FATAL":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
