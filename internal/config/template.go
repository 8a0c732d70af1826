package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// envTokenRE matches placeholder tokens of the form {{env.NAME}}.
var envTokenRE = regexp.MustCompile(`\{\{env\.([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// MissingEnvVarError reports the first {{env.X}} token whose variable is
// not set. Templating is a configuration concern: the component must never
// run against a config with unresolved placeholders.
type MissingEnvVarError struct {
	Name string
}

func (e *MissingEnvVarError) Error() string {
	return fmt.Sprintf("environment variable %s referenced in config is not set", e.Name)
}

// ResolveEnvTokens substitutes every {{env.NAME}} token in the config file
// from the process environment and rewrites the file in place, so the
// templated document is what the component reads. Returns
// MissingEnvVarError for the first unresolved token.
func ResolveEnvTokens(configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var missing *MissingEnvVarError
	resolved := envTokenRE.ReplaceAllStringFunc(string(raw), func(token string) string {
		name := envTokenRE.FindStringSubmatch(token)[1]
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			if missing == nil {
				missing = &MissingEnvVarError{Name: name}
			}
			return token
		}
		return value
	})
	if missing != nil {
		return missing
	}

	// substituted values must still form a valid JSON document
	var doc any
	if err := json.Unmarshal([]byte(resolved), &doc); err != nil {
		return fmt.Errorf("config is not valid JSON after templating: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(resolved), 0o644); err != nil {
		return fmt.Errorf("rewrite config: %w", err)
	}
	return nil
}
