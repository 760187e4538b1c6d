package environment

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Scenario is a single entry in a scenario TOML file: one task to run
// through an isolator and the outcome kind it should classify as.
type Scenario struct {
	Name      string `toml:"name"`
	Task      string `toml:"task"`
	Args      string `toml:"args"`
	Transport string `toml:"transport"`
	Capacity  int    `toml:"capacity"`
	Codec     string `toml:"codec"`
	Expect    string `toml:"expect"`
}

type scenarioFile struct {
	Scenarios []Scenario `toml:"scenarios"`
}

// ParseScenarios reads a scenario TOML file.
func ParseScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var root scenarioFile
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	for i, s := range root.Scenarios {
		if s.Task == "" {
			return nil, fmt.Errorf("scenario %d is missing a task", i)
		}
	}
	return root.Scenarios, nil
}
