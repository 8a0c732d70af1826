package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// SecretsFileName is the conventional secrets document name inside a
// fixture's data dir. The file is merged into the working config in memory
// at record time only and never persisted to the committed config.
const SecretsFileName = "config.secrets.json"

// SecretsLoadError reports a secrets file that exists but cannot be read
// or parsed. Distinguished from an absent file, which is a legitimate
// state (replay and passthrough need no credentials).
type SecretsLoadError struct {
	Path string
	Err  error
}

func (e *SecretsLoadError) Error() string {
	return fmt.Sprintf("failed to load secrets from %s: %v", e.Path, e.Err)
}

func (e *SecretsLoadError) Unwrap() error { return e.Err }

// LoadSecrets reads a secrets document. A missing file returns (nil, nil);
// an unreadable or malformed file returns SecretsLoadError.
func LoadSecrets(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &SecretsLoadError{Path: path, Err: err}
	}
	var secrets map[string]any
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, &SecretsLoadError{Path: path, Err: err}
	}
	return secrets, nil
}

// LoadDocument reads an arbitrary JSON object document from disk.
func LoadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return doc, nil
}

// SaveDocument writes a JSON object document, indented and key-sorted.
func SaveDocument(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
