// Package logging provides structured logging for deckstate-core.
//
// It wraps log/slog so every component logs with the same handler, level
// and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("api").Info("listening", "port", 8080)
//
// Never log secrets: the JWT secret, MQTT password, InfluxDB token or
// operator password hashes.
package logging
