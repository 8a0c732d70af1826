package snapshot

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Version identifies the snapshot file format.
const Version = "1.0"

// HashAlgorithm tags every hash value so the algorithm can change later
// without invalidating comparison of already-tagged snapshots.
const HashAlgorithm = "sha256"

// FileName is the conventional snapshot file name inside a fixture's data dir.
const FileName = "output_snapshot.json"

// DefaultIgnorePatterns are filename globs excluded from capture.
var DefaultIgnorePatterns = []string{".gitkeep", "*.manifest"}

// Entry holds the captured digest of a single output file.
type Entry struct {
	Hash      string   `json:"hash"`
	SizeBytes int64    `json:"size_bytes"`
	RowCount  *int     `json:"row_count,omitempty"`
	Columns   []string `json:"columns,omitempty"`
}

// Snapshot is the digest of one output tree, keyed by path relative to the
// tables/ and files/ roots.
type Snapshot struct {
	Version       string           `json:"version"`
	HashAlgorithm string           `json:"hash_algorithm"`
	Tables        map[string]Entry `json:"tables"`
	Files         map[string]Entry `json:"files"`
}

// Capturer builds snapshots of output trees.
type Capturer struct {
	ignore []string
}

// NewCapturer creates a capturer with the given ignore patterns.
// A nil slice selects DefaultIgnorePatterns.
func NewCapturer(ignorePatterns []string) *Capturer {
	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}
	return &Capturer{ignore: ignorePatterns}
}

// Capture digests every non-hidden, non-ignored file under
// outputRoot/tables and outputRoot/files. Missing subtrees yield empty maps,
// not errors; an output root with no tables is a legitimate result.
func (c *Capturer) Capture(outputRoot string) (*Snapshot, error) {
	snap := &Snapshot{
		Version:       Version,
		HashAlgorithm: HashAlgorithm,
		Tables:        map[string]Entry{},
		Files:         map[string]Entry{},
	}

	if err := c.captureDir(filepath.Join(outputRoot, "tables"), snap.Tables, true); err != nil {
		return nil, fmt.Errorf("capture tables: %w", err)
	}
	if err := c.captureDir(filepath.Join(outputRoot, "files"), snap.Files, false); err != nil {
		return nil, fmt.Errorf("capture files: %w", err)
	}
	return snap, nil
}

func (c *Capturer) captureDir(root string, out map[string]Entry, tabular bool) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || c.ignored(name) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entry, err := digestFile(p, tabular)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = entry
		return nil
	})
}

func (c *Capturer) ignored(name string) bool {
	for _, pattern := range c.ignore {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func digestFile(p string, tabular bool) (Entry, error) {
	f, err := os.Open(p)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Hash:      HashAlgorithm + ":" + hex.EncodeToString(h.Sum(nil)),
		SizeBytes: size,
	}
	if tabular && strings.EqualFold(filepath.Ext(p), ".csv") {
		if rows, cols, err := csvMetadata(p); err == nil {
			entry.RowCount = &rows
			entry.Columns = cols
		}
		// unparseable CSV keeps hash+size only
	}
	return entry, nil
}

// csvMetadata returns the total row count (header included) and the
// column names from the header row.
func csvMetadata(p string) (int, []string, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return 0, []string{}, nil
	}
	if err != nil {
		return 0, nil, err
	}

	rows := 1
	for {
		if _, err := r.Read(); err == io.EOF {
			break
		} else if err != nil {
			return 0, nil, err
		}
		rows++
	}
	return rows, header, nil
}

// Save writes the snapshot as indented, key-sorted JSON for stable diffs
// under version control.
func Save(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}
