package main

import "github.com/ilyakaznacheev/cleanenv"

type ServiceConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"TREEPROF_ENVIRONMENT" env-default:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// ActiveOnStart controls whether the profiler records from the first
	// request on. Operators can flip it at runtime through
	// /profile/activate and /profile/deactivate.
	ActiveOnStart bool `env:"TREEPROF_ACTIVE" env-default:"true"`
}

func loadConfig() (ServiceConfig, error) {
	var config ServiceConfig
	err := cleanenv.ReadEnv(&config)
	return config, err
}
