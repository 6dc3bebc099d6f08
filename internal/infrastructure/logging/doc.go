// Package logging wraps log/slog with the service's conventions: JSON
// output for production, text for development, level filtering, and
// service/version fields on every record.
//
// Configured from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//
// Never log connection secrets; adapter configurations carry broker and
// community credentials, so log protocol codes and hosts, not whole
// configs.
package logging
