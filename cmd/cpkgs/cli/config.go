package cli

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configSearchPaths are scanned for config.yaml and .env files when no
// explicit --config flag is given.
var configSearchPaths = []string{".", "./config", "/etc/cpkgs", "$HOME/.cpkgs"}

func initConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range configSearchPaths {
			viper.AddConfigPath(dir)
			loadEnvFiles(dir)
		}
	}

	viper.SetEnvPrefix("CPKGS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadEnvFiles merges .env files from dir into the process environment.
// Missing files are fine.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		godotenv.Load(filepath.Join(dir, name))
	}
}
