package config

import (
	"encoding/json"
	"os"

	"github.com/theoremlab/bootstrap/pkg/errors"
)

// LoadGoals reads a held-out goal set from a JSON file containing an
// array of statement strings.
func LoadGoals(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ConfigInvalid, "reading goal set")
	}

	var goals []string
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, errors.Wrap(err, errors.ConfigInvalid, "parsing goal set")
	}

	if len(goals) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.ConfigInvalid, "goal set is empty"),
			errors.Fields{"path": path},
		)
	}

	return goals, nil
}

// LoadTheory reads a background theory source file.
func LoadTheory(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ConfigInvalid, "reading theory")
	}
	return string(data), nil
}
