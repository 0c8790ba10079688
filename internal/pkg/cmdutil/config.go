// Package cmdutil provides shared utilities for CLI command implementations.
package cmdutil

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GetStringConfig returns flagValue when it is set, otherwise the config value for key.
func GetStringConfig(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// GetBoolConfig resolves a boolean setting. A flag given on the command line
// wins; otherwise the config value for key is used when set, and the flag's
// default when it is not.
func GetBoolConfig(flags *pflag.FlagSet, name, key string) bool {
	f := flags.Lookup(name)
	if f != nil && f.Changed {
		v, _ := flags.GetBool(name)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if f == nil {
		return false
	}
	v, _ := flags.GetBool(name)
	return v
}
