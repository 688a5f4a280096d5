package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileNames are the config file names looked up by FindConfig, in order.
var ConfigFileNames = []string{"notekeep.yaml", ".notekeep.yaml"}

// FindConfig walks upwards from startDir and returns the first config file found.
func FindConfig(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range ConfigFileNames {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config not found above %s", abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
