package board

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in initial dataset.
func DefaultSeed() []Task {
	tasks, err := parseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("board: embedded seed is invalid: %v", err))
	}
	return tasks
}

// LoadSeed reads a YAML task list from path.
func LoadSeed(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	tasks, err := parseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding seed file %s: %w", path, err)
	}
	return tasks, nil
}

func parseSeed(data []byte) ([]Task, error) {
	var tasks []Task
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %d", t.ID)
		}
		seen[t.ID] = true
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
