package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// / Logger setup. The zero value logs info and above to stdout with the console encoder.
type Config struct {
	Level      string ///< debug, info, warn, error. Empty means info.
	Encoding   string ///< console or json.
	Filename   string ///< Rotated log file. Empty disables file output.
	MaxSizeMB  int    ///< Size in megabytes before the file is rotated.
	MaxBackups int    ///< Number of rotated files to keep.
	MaxAgeDays int    ///< Days to keep rotated files.
	Compress   bool   ///< Gzip rotated files.
	Stdout     bool   ///< Also write to stdout when Filename is set.
}

func (c *Config) Reset() {
	c.Level = "info"
	c.Encoding = EncodingConsole
	c.Filename = ""
	c.MaxSizeMB = 100
	c.MaxBackups = 3
	c.MaxAgeDays = 7
	c.Compress = false
	c.Stdout = true
}

func DefaultConfig() Config {
	var c Config
	c.Reset()
	return c
}

func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
		}
	}
	encoder, err := newEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if cfg.Filename != "" {
		w := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(w), level))
	}
	if cfg.Filename == "" || cfg.Stdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func newEncoder(encoding string) (zapcore.Encoder, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	switch encoding {
	case "", EncodingConsole:
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec), nil
	case EncodingJSON:
		return zapcore.NewJSONEncoder(ec), nil
	}
	return nil, fmt.Errorf("logger: unknown encoding %q", encoding)
}
