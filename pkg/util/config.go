package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads converter defaults from an optional config file. When path
// is empty, a file named coursepointer.{yaml,toml,json} is searched for in the
// working directory.
func ReadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("coursepointer")
		v.AddConfigPath(".")
	}

	err := v.ReadInConfig()
	if err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && path == "" {
			return v, nil
		}
		return nil, fmt.Errorf("fatal error config file: %w", err)
	}
	return v, nil
}
