package logx

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLogDir   = "STORYSEED_LOG_DIR"
	logFilePerm = 0o644
	logDirPerm  = 0o755
)

// ResolveDir picks the log directory: env override, then the configured path,
// then ./logs.
func ResolveDir(configured string) string {
	if dir := strings.TrimSpace(os.Getenv(envLogDir)); dir != "" {
		return dir
	}
	if configured != "" {
		return configured
	}
	return filepath.Join(".", "logs")
}

func todayFilename(now time.Time) string {
	return "storyseed_" + now.Format("2006-01-02") + ".log"
}

// fileWriter appends to a daily-rotated log file.
type fileWriter struct {
	mu  sync.Mutex
	dir string
}

func newFileWriter(dir string) (*fileWriter, error) {
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, err
	}
	return &fileWriter{dir: dir}, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.dir, todayFilename(time.Now()))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
	if err != nil {
		return 0, err
	}

	n, writeErr := file.Write(p)
	closeErr := file.Close()
	if writeErr != nil {
		return n, writeErr
	}
	return n, closeErr
}

func (w *fileWriter) Sync() error { return nil }

// New creates the application logger writing to stdout and the daily log file.
// In development the level drops to Debug.
func New(dir string, dev bool) (*zap.Logger, error) {
	writer, err := newFileWriter(dir)
	if err != nil {
		return nil, err
	}

	lvl := zap.InfoLevel
	if dev {
		lvl = zap.DebugLevel
	}
	level := zap.NewAtomicLevelAt(lvl)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(encoder, zapcore.AddSync(writer), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
