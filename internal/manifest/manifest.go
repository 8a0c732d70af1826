package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// FileName is the manifest file name inside a fixture directory.
const FileName = "manifest.yaml"

// Manifest holds the per-fixture overrides. Zero values mean "not set";
// Load fills defaults for the fields the harness always needs.
type Manifest struct {
	Mode       string `yaml:"mode"`
	FreezeTime string `yaml:"freeze_time"`

	Artifacts struct {
		Destination string `yaml:"destination"`
	} `yaml:"artifacts"`

	Snapshot struct {
		Ignore []string `yaml:"ignore"`
	} `yaml:"snapshot"`

	Sanitize struct {
		Fields      []string `yaml:"fields"`
		QueryParams []string `yaml:"query_params"`
		SafeHeaders []string `yaml:"safe_headers"`

		// URLDomains/URLParams configure ephemeral-parameter stripping for
		// URLs embedded in response bodies. Both must be set to take effect.
		URLDomains []string `yaml:"url_domains"`
		URLParams  []string `yaml:"url_params"`
	} `yaml:"sanitize"`
}

// InvalidManifestError reports a manifest that failed schema validation.
type InvalidManifestError struct {
	Path string
	Err  error
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *InvalidManifestError) Unwrap() error { return e.Err }

// Default returns the manifest used when a fixture ships none.
func Default() *Manifest {
	m := &Manifest{Mode: "auto", FreezeTime: "auto"}
	m.Artifacts.Destination = "runs"
	return m
}

// Load reads and validates <fixtureDir>/manifest.yaml. A missing file
// yields the defaults; a present but malformed or schema-violating file is
// an error.
func Load(fixtureDir string) (*Manifest, error) {
	path := filepath.Join(fixtureDir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidManifestError{Path: path, Err: err}
	}
	if err := validate(raw); err != nil {
		return nil, &InvalidManifestError{Path: path, Err: err}
	}

	// decoding into the defaults keeps absent keys at their default while
	// an explicit freeze_time: "" still disables freezing
	m := Default()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, &InvalidManifestError{Path: path, Err: err}
	}
	return m, nil
}

// validate unifies the decoded document with the embedded schema.
func validate(raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}
	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Err(); err != nil {
		return err
	}
	return unified.Validate(cue.Concrete(false))
}
