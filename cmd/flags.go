package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/assetpack/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats accepted by --format flags.
var (
	listFormats    = []string{"table", "json", "yaml"}
	configFormats  = []string{"yaml", "toml", "json"}
	versionFormats = []string{"text", "json", "yaml"}
)

// mustBind binds flags to Viper keys so flag values override the
// configuration file. Binding only fails for unknown flag names.
func mustBind(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) {
	for flagName, key := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			panic(fmt.Sprintf("cannot bind unknown flag %q", flagName))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

// addFlagValidation makes the flag reject values validator refuses, at parse time.
func addFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{Value: flag.Value, validator: validator}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if err := v.validator(val); err != nil {
		return err
	}
	return v.Value.Set(val)
}

func validatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}
	return nil
}

func validateLogLevel(level string) error {
	_, err := logging.ParseLevel(level)
	return err
}

// validateFormat checks format against allowed, suggesting the closest
// allowed value on a near miss.
func validateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	msg := fmt.Sprintf("unsupported format %q (supported: %s)", format, strings.Join(allowed, ", "))
	for _, a := range allowed {
		if strings.HasPrefix(a, strings.ToLower(format)) && format != "" {
			return fmt.Errorf("%s; did you mean %q?", msg, a)
		}
	}
	return errors.New(msg)
}
