package env

import (
	"encoding/json"
	"fmt"
	"os"
)

// Provider supplies the variable stores a run starts from and receives
// the persisted store back when the run ends.
type Provider interface {
	// Snapshot returns the persisted variables merged with the
	// selected environment, environment values winning.
	Snapshot() (map[string]any, error)
	// Environment returns the selected environment's variables only.
	Environment() (map[string]any, error)
	// Save persists the given store for the next run.
	Save(store map[string]any) error
}

// FileProvider reads the environment selection from an environment
// file and the persisted variables from a snapshot file.
type FileProvider struct {
	envName      string
	envPath      string
	snapshotPath string
}

func NewFileProvider(envName, envPath, snapshotPath string) *FileProvider {
	return &FileProvider{
		envName:      envName,
		envPath:      envPath,
		snapshotPath: snapshotPath,
	}
}

func (p *FileProvider) Snapshot() (map[string]any, error) {
	snapshot, err := readObject(p.snapshotPath)
	if err != nil {
		return nil, err
	}
	environment, err := p.Environment()
	if err != nil {
		return nil, err
	}

	for name, value := range environment {
		snapshot[name] = value
	}
	return snapshot, nil
}

func (p *FileProvider) Environment() (map[string]any, error) {
	environments, err := readObject(p.envPath)
	if err != nil {
		return nil, err
	}

	selected, ok := environments[p.envName]
	if !ok {
		return map[string]any{}, nil
	}
	variables, ok := selected.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("environment `%s` in %s is not an object", p.envName, p.envPath)
	}
	return variables, nil
}

func (p *FileProvider) Save(store map[string]any) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(p.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", p.snapshotPath, err)
	}
	return nil
}

// readObject parses path as a JSON object. A missing file is an empty
// object.
func readObject(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	object := map[string]any{}
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return object, nil
}

// StaticProvider serves fixed stores and records what was saved.
type StaticProvider struct {
	Variables map[string]any
	Persisted map[string]any
	Saved     map[string]any
}

func (p *StaticProvider) Snapshot() (map[string]any, error) {
	merged := make(map[string]any, len(p.Persisted)+len(p.Variables))
	for name, value := range p.Persisted {
		merged[name] = value
	}
	for name, value := range p.Variables {
		merged[name] = value
	}
	return merged, nil
}

func (p *StaticProvider) Environment() (map[string]any, error) {
	if p.Variables == nil {
		return map[string]any{}, nil
	}
	return p.Variables, nil
}

func (p *StaticProvider) Save(store map[string]any) error {
	p.Saved = store
	return nil
}
