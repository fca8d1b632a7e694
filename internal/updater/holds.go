package updater

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// HoldsFile is the holds file location relative to the plugin directory.
var HoldsFile = filepath.Join(".lazyandrew", "holds.toml")

// Hold marks a plugin file that must never be replaced automatically.
type Hold struct {
	// Reason is shown to the user when the update is skipped
	Reason string `toml:"reason"`
}

// Holds maps plugin file names to their hold. Each [table] in holds.toml is a
// file name:
//
//	["WorldEdit.jar"]
//	reason = "waiting for a 1.21 build"
type Holds map[string]Hold

// LoadHolds reads the holds file of a plugin directory.
// A missing file yields an empty set.
func LoadHolds(pluginDir string) (Holds, error) {
	path := filepath.Join(pluginDir, HoldsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Holds{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	holds := Holds{}
	if err := toml.Unmarshal(data, &holds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return holds, nil
}

// Held returns the hold for a file name.
func (h Holds) Held(name string) (Hold, bool) {
	hold, ok := h[name]
	return hold, ok
}

// SaveHolds writes holds to the plugin directory's holds file.
func SaveHolds(pluginDir string, holds Holds) error {
	path := filepath.Join(pluginDir, HoldsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(holds)
}
