// Package logger wraps zerolog with the configuration and field conventions
// used by streamkit. The stream executor logs through a *Logger; by default it
// uses Nop so library callers see no output unless they opt in.
//
//	log := logger.New(&logger.Config{Level: "debug", Format: "json"}, "streamkit")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id, logger.FieldLeaves, 8))
package logger
