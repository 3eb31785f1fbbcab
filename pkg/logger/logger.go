package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap to provide a simpler structured-logging interface.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger configuration.
type Config struct {
	Level      string `json:"level"`
	OutputPath string `json:"output_path"`
	Format     string `json:"format"` // "json" or "console"
}

// New creates a new logger instance.
func New(config *Config) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(config.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	zapConfig := zap.Config{
		Level:            level,
		OutputPaths:      []string{config.OutputPath},
		ErrorOutputPaths: []string{config.OutputPath},
		Encoding:         config.Format,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "msg",
			LevelKey:      "level",
			TimeKey:       "time",
			NameKey:       "logger",
			CallerKey:     "caller",
			FunctionKey:   zapcore.OmitKey,
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			EncodeTime:    zapcore.ISO8601TimeEncoder,
			EncodeCaller:  zapcore.ShortCallerEncoder,
		},
	}

	zl, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewDefault creates a logger with default configuration: console output at
// info level. Use NewWithLevel to turn on debug verbosity.
func NewDefault() *Logger {
	return NewWithLevel("info")
}

// NewWithLevel creates a console logger at the given level.
func NewWithLevel(level string) *Logger {
	log, err := New(&Config{
		Level:      level,
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		zl, _ := zap.NewProduction()
		return &Logger{SugaredLogger: zl.Sugar()}
	}
	return log
}

// With adds structured context to the logger.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}

// Fatal logs a message at fatal level and then calls os.Exit(1).
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
}
