// Package config handles loading and validating deckstate-core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with DECKSTATE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables
//   - Operator passwords are stored only as Argon2id hashes
//
// Usage:
//
//	cfg, err := config.Load(config.ResolvePath(*configFlag))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
