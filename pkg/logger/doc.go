// Package logger provides a small factory around log/slog with environment
// presets and context-aware attribute extraction.
//
// Packages in this repository accept a *slog.Logger and never construct one
// themselves; the entry point builds a single logger here and passes it down.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Environment, "workdeck"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
package logger
