package cassette

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roach88/pipetest/internal/sanitize"
)

// DirName is the cassette subdirectory inside a fixture's data dir.
const DirName = "cassettes"

// FileName is the default cassette file name.
const FileName = "requests.json"

// ToolVersion is stamped into cassette metadata at record time.
const ToolVersion = "0.4.0"

// Interaction is one recorded request/response pair.
type Interaction struct {
	Request  sanitize.Request  `json:"request"`
	Response sanitize.Response `json:"response"`
}

// Metadata is the block stamped into a cassette after recording.
type Metadata struct {
	RecordedAt  string `json:"recorded_at"`
	FreezeTime  string `json:"freeze_time,omitempty"`
	ToolVersion string `json:"tool_version"`
}

// Cassette is a persisted ordered list of interactions plus metadata.
// Field order mirrors the key-sorted JSON layout on disk.
type Cassette struct {
	Metadata     *Metadata     `json:"_metadata,omitempty"`
	Interactions []Interaction `json:"interactions"`
}

// Load reads a cassette file.
func Load(path string) (*Cassette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cassette: %w", err)
	}
	var c Cassette
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse cassette %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the cassette indented for stable diffs under version control.
func Save(c *Cassette, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cassette: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write cassette: %w", err)
	}
	return nil
}

// LoadMetadata reads only the metadata block of a cassette file.
// Returns nil for a cassette without metadata or a missing file.
func LoadMetadata(path string) *Metadata {
	c, err := Load(path)
	if err != nil {
		return nil
	}
	return c.Metadata
}
