package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

const (
	ErrAttrKey = "error"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = Nop()
)

// Setup installs a zerolog-backed global logger and routes library warnings
// (errors.Warn) into it.
func Setup(level, format string, w io.Writer) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := NewZerologLogger(w, lvl, format)
	SetLogger(logger)
	errors.SetZerologWarnFunc(func(warning error) {
		logger.Warn("library warning", "warning", warning)
	})
	return logger, nil
}

// ParseLevel converts a level name to Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewInvalidParameterError("log_level", fmt.Sprintf("unknown level, want one of %s", "debug|info|warn|error"), level)
	}
}

// GetLogger returns the process-wide logger. It discards output until Setup
// or SetLogger is called.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(l Logger) {
	if l == nil {
		l = Nop()
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// ErrorCode maps an error from pkg/errors to one of the Error* codes logged
// under ErrorCodeKey. Unknown errors map to "".
func ErrorCode(err error) string {
	var (
		notFitted *errors.NotFittedError
		dim       *errors.DimensionError
		param     *errors.InvalidParameterError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFitted):
		return ErrorNotFitted
	case errors.As(err, &dim):
		return ErrorDimensionMismatch
	case errors.As(err, &param):
		return ErrorInvalidParameter
	case errors.Is(err, errors.ErrInsufficientData):
		return ErrorInsufficientData
	case errors.Is(err, errors.ErrSingularMatrix):
		return ErrorSingularMatrix
	default:
		return ""
	}
}
