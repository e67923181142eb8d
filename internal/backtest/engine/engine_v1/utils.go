package engine

import (
	"path/filepath"
	"strings"
)

// getResultFolder returns <results>/<strategy>/<config>/<data file>, using base names without
// extensions for the config and data file.
func getResultFolder(resultsFolder string, strategyName string, configPath string, dataPath string) string {
	strategyFolder := filepath.Join(resultsFolder, sanitizeName(strategyName))
	configFolder := filepath.Join(strategyFolder, trimExtension(configPath))

	return filepath.Join(configFolder, trimExtension(dataPath))
}

func trimExtension(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeName makes a strategy name usable as a single path element.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name)
}
