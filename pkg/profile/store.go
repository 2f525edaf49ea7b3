package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store reads and writes profile files in a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profiles directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// Filename derives the on-disk name for a profile from its brand and model.
func Filename(p *Profile) string {
	name := fmt.Sprintf("%s_%s.json", p.Brand, p.Model)
	return strings.ReplaceAll(name, " ", "_")
}

// List returns the available profile filenames, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load reads, validates and normalizes a profile by filename.
func (s *Store) Load(filename string) (*Profile, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", filename, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", filename, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", filename, err)
	}
	p.Normalize()
	return &p, nil
}

// Save writes the profile under its derived filename and returns that name.
func (s *Store) Save(p *Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	filename := Filename(p)
	if err := os.WriteFile(filepath.Join(s.dir, filename), append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write profile %s: %w", filename, err)
	}
	return filename, nil
}
