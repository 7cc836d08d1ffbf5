package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter provides a unified interface for both single and multi-logger
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
	useMulti     bool
}

// NewLoggerAdapter creates a new logger adapter
func NewLoggerAdapter(multiLogger *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{
		multiLogger: multiLogger,
		useMulti:    true,
	}
}

// NewSingleLoggerAdapter creates an adapter for a single logger, used by
// the CLI where per-category files are overkill
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{
		singleLogger: logger,
		useMulti:     false,
	}
}

// WebAccess returns the web access logger
func (la *LoggerAdapter) WebAccess() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.WebAccess()
	}
	return la.singleLogger
}

// Batch returns the batch lifecycle logger
func (la *LoggerAdapter) Batch() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Batch()
	}
	return la.singleLogger
}

// PlaylistSync returns the playlist sync logger
func (la *LoggerAdapter) PlaylistSync() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.PlaylistSync()
	}
	return la.singleLogger
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Error()
	}
	return la.singleLogger
}

// LogError logs an error to both category and error logs
func (la *LoggerAdapter) LogError(category LogCategory, msg string, fields ...zap.Field) {
	if la.useMulti {
		la.multiLogger.LogError(category, msg, fields...)
	} else {
		la.singleLogger.Error(msg, fields...)
	}
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.useMulti {
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}

// GetMultiLogger returns the underlying multi-logger (if available)
func (la *LoggerAdapter) GetMultiLogger() *MultiLogger {
	return la.multiLogger
}

// GetSingleLogger returns a plain logger for components that take one
func (la *LoggerAdapter) GetSingleLogger() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Batch()
	}
	return la.singleLogger
}
