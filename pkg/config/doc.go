// Package config loads runtime configuration from environment variables into
// tagged structs.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every component that needs
// deployment-specific values (REST base URL, push channel base URL, reconnect
// policy, toast duration, HTTP listen address) owns a Config struct with env
// tags, and the binaries compose them:
//
//	var cfg struct {
//	    API      apiclient.Config
//	    Realtime realtime.Config
//	}
//	config.MustLoad(&cfg)
//
// Values are read at process start, so one built artifact can point at
// different backends per deployment.
package config
