package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/conneroisu/assetpack/internal/logging"
	"github.com/conneroisu/assetpack/internal/validation"
	"golang.org/x/text/encoding/htmlindex"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("errors", vr.Errors)
	write("warnings", vr.Warnings)
	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

// Validate checks the parts of a configuration that do not depend on the
// processor registry or the filesystem.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateAssets(cfg, result)
	validateProcessorNames(cfg, result)
	validateOutput(cfg, result)
	validateServer(&cfg.Server, result)
	validateLog(&cfg.Log, result)

	if cfg.Charset != "" {
		if _, err := htmlindex.Get(cfg.Charset); err != nil {
			result.addError("charset", cfg.Charset, "unknown character encoding",
				"Use a WHATWG encoding label such as utf-8, iso-8859-1 or windows-1252")
		}
	}

	if cfg.Workers < 0 {
		result.addError("workers", cfg.Workers, "workers cannot be negative",
			"Leave workers unset to use one worker per CPU")
	}

	if err := validation.ValidatePrefix(cfg.Prefix); err != nil {
		result.addError("prefix", cfg.Prefix, err.Error(),
			"Use a path such as /static/ or a URL such as https://cdn.example.com/static/")
	} else if cfg.Prefix != "" && !strings.HasSuffix(cfg.Prefix, "/") {
		result.addWarning("prefix", cfg.Prefix, "prefix does not end with '/'",
			"Rewritten URLs replace the last prefix segment unless it ends with '/'")
	}

	if len(cfg.Assets) == 0 {
		result.addWarning("assets", nil, "no assets are configured",
			`Add an "assets" mapping of output names to input specs`)
	}

	return result
}

// ValidateAssetName rejects names that would escape the output directory.
func ValidateAssetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("asset name cannot be empty")
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return fmt.Errorf("asset name %q must be relative", name)
	}
	if strings.Contains(name, `\`) {
		return fmt.Errorf("asset name %q must use '/' separators", name)
	}
	if strings.HasSuffix(name, "/") {
		return fmt.Errorf("asset name %q names a directory", name)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return fmt.Errorf("asset name %q contains path traversal", name)
		}
		if segment == "." || segment == "" {
			return fmt.Errorf("asset name %q has an empty or '.' segment", name)
		}
	}
	if path.Clean(name) != name {
		return fmt.Errorf("asset name %q is not clean (want %q)", name, path.Clean(name))
	}
	return nil
}

func validateAssets(cfg *Config, result *ValidationResult) {
	for name := range cfg.Assets {
		if err := ValidateAssetName(name); err != nil {
			result.addError("assets", name, err.Error(),
				"Asset names are paths relative to the output directory, such as css/site.css")
		}
	}
}

func validateProcessorNames(cfg *Config, result *ValidationResult) {
	for name, ref := range cfg.Register {
		if name == "" || strings.Contains(name, ":") {
			result.addError("register", name, "processor names cannot be empty or contain ':'")
		}
		if strings.TrimSpace(ref) == "" {
			result.addError("register."+name, ref, "processor reference cannot be empty",
				`Use "builtin:<name>" or a command line such as "postcss --no-map"`)
		}
	}
}

func validateOutput(cfg *Config, result *ValidationResult) {
	if cfg.Output == "" {
		result.addWarning("output", nil, "no output directory; assets are packed into a temporary directory")
	}
}

func validateServer(server *ServerConfig, result *ValidationResult) {
	if server.Port < 0 || server.Port > 65535 {
		result.addError("server.port", server.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", server.Port),
			"Common development ports: 3000, 8000, 8080",
			"Port 0 allows system to assign an available port")
	} else if server.Port > 0 && server.Port < 1024 {
		result.addWarning("server.port", server.Port, "port below 1024 requires elevated privileges")
	}
}

func validateLog(log *LogConfig, result *ValidationResult) {
	if log.Level != "" {
		if _, err := logging.ParseLevel(log.Level); err != nil {
			result.addError("log.level", log.Level, err.Error(), "Use debug, info, warn or error")
		}
	}
	switch log.Format {
	case "", "text", "json":
	default:
		result.addError("log.format", log.Format, "unknown log format", "Use text or json")
	}
}
