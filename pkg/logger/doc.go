// Package logger builds context-aware slog loggers and keeps attribute names
// consistent across packages.
//
// New creates a *slog.Logger configured by Option functions: output format
// (text or json), minimum level, static attributes and ContextExtractor
// callbacks that pull values such as the request id out of the logging context
// on every record. FromConfig maps the env-driven Config onto those options.
//
// Attribute helpers (TaskID, Attempt, Progress, Duration, Component, Error, ...)
// return slog.Attr values with fixed keys. Error returns an empty attribute for a
// nil error, so it can be passed unconditionally.
//
// ProgressSampler throttles per-attempt progress logging to one line per bucket.
//
// # Usage
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//
//	log := logger.New(append(logger.FromConfig(cfg),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)...)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "upload completed",
//	    logger.TaskID(id),
//	    logger.Duration(time.Since(start)),
//	)
package logger
