// Package config loads typed configuration structs from environment variables.
//
// Fields are described with github.com/caarlos0/env struct tags. Optional
// .env files are read first through github.com/joho/godotenv; variables that
// are already set in the process environment always win.
//
//	type Config struct {
//	    InviteTTL time.Duration `env:"INVITE_TTL" envDefault:"168h"`
//	}
//
//	cfg, err := config.Load[Config](config.WithPrefix("SEATS_"))
package config
