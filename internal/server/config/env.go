package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/whistles/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. WHISTLES_SECRET.
const EnvPrefix = "WHISTLES"

// parseEnv overlays values from the process environment. When -env-file is
// given the file is loaded first; variables already set in the environment
// win over the file. Unset variables leave the current values untouched.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
