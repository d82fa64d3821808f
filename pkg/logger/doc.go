// Package logger provides structured logging built on zerolog.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
//   - Multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - Structured logging with fields
//   - Pretty console output with colors
//   - An optional JSON file sink alongside the console
//   - A capture-only TestLogger for asserting on log output in tests
//
// The file sink, when configured, must be flushed before process exit:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.GetLogger()
//	log.WithField("target", url).Info("starting download")
package logger
