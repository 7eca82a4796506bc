package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"

	megabyte = 1 << 20
)

// RSyncWrite is a rotable and concurent safe file-based logs writer.
// It is aimed to be used by Zap core routine so it implements the
// zapcore.WriteSyncer interface. A new file is opened once the current
// one would exceed the configured max size (in megabytes).
type RSyncWrite struct {
	sync.Mutex
	clock  Clocker
	file   *os.File
	folder string
	max    int
	size   int64
	isProd bool
}

func NewRSyncWriter(config *Config, clock Clocker) *RSyncWrite {
	return &RSyncWrite{
		clock:  clock,
		folder: config.LogFolder,
		max:    config.LogMaxSize,
		isProd: config.IsProduction,
	}
}

// Close closes the current log file.
func (rsw *RSyncWrite) Close() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	err := rsw.file.Close()
	rsw.file = nil
	return err
}

func (rsw *RSyncWrite) Sync() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	return rsw.file.Sync()
}

// Write implements the io.Writer interface with file rotation on max size.
func (rsw *RSyncWrite) Write(p []byte) (n int, err error) {
	rsw.Lock()
	defer rsw.Unlock()
	pLen := int64(len(p))
	limit := int64(rsw.max) * megabyte
	if pLen > limit {
		return 0, fmt.Errorf("logging: log size %d exceeds max file size %d", pLen, limit)
	}
	if pLen+rsw.size > limit || rsw.file == nil {
		if rsw.file != nil {
			if err := rsw.file.Close(); err != nil {
				return 0, err
			}
		}

		path := CreateLogFilePath(rsw.folder, rsw.isProd, rsw.clock.Now())
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		rsw.file = file
		rsw.size = 0
	}
	n, err = rsw.file.Write(p)
	rsw.size += int64(n)
	return n, err
}

// SyncWrite implements zapcore.WriteSyncer on top of the standard output.
// Its Sync is a no-op to avoid the `invalid argument` error returned by
// os.Stdout on some platforms.
type SyncWrite struct {
	out *os.File
}

func (sw *SyncWrite) Sync() error {
	return nil
}

func (sw *SyncWrite) Write(p []byte) (n int, err error) {
	return sw.out.Write(p)
}

func newEncoderConfig(isProd bool) zapcore.EncoderConfig {
	zapConfig := zap.NewDevelopmentEncoderConfig()
	if isProd {
		zapConfig = zap.NewProductionEncoderConfig()
	}
	zapConfig.TimeKey = "ts"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "lvl"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "skt"
	return zapConfig
}

// SetupLogging is a helper function that initializes the logging module.
// In production all logs are saved to the rotating file. In development
// the same logs are printed to standard output as well. It only adds
// stacktrace to fatal level logs. All logs come with build infos.
func SetupLogging(config *Config, w zapcore.WriteSyncer, clock TickerClocker) (*zap.Logger, func() error) {
	var zapCore zapcore.Core
	if config.IsProduction {
		fileEncoder := zapcore.NewJSONEncoder(newEncoderConfig(true))
		zapCore = zapcore.NewCore(fileEncoder, w, config.LogLevel)
	} else {
		zapConfig := newEncoderConfig(false)
		zapCore = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewJSONEncoder(zapConfig), w, config.LogLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), zapcore.Lock(&SyncWrite{os.Stdout}), config.LogLevel),
		)
	}

	logger := zap.New(zapCore, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock))
	logger = logger.With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}

	return logger, flusher
}

// GetLoggerFromContext retrieves previously set logger from the context and returns it.
// If the logger can't be retrieved it will return the initial logger of the App.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if value, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok && value != nil {
		return value
	}
	return api.logger
}

// CreateLogFilePath returns the absolute path of a new log file.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	envKey := "dev"
	if isProd {
		envKey = "prod"
	}
	suffix := fmt.Sprintf("%04d%02d%02d.%02d%02d%02d.%s.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), envKey)
	return filepath.Join(folder, suffix)
}
