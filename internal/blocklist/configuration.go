package blocklist

import (
	"path/filepath"
	"strings"

	pathutils "github.com/temirov/gitmirror/internal/utils/path"
)

const (
	defaultMetadataDirectoryConstant = "~/.gitmirror"
	blocklistFileNameConstant        = "blocklist.yaml"
)

var configurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for blocklist commands.
type CommandConfiguration struct {
	Organization      string   `mapstructure:"organization"`
	MetadataDirectory string   `mapstructure:"metadata_directory"`
	Patterns          []string `mapstructure:"blocklist"`
}

// DefaultCommandConfiguration returns baseline configuration values for blocklist commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		MetadataDirectory: defaultMetadataDirectoryConstant,
	}
}

// Sanitize trims configured values, expands the metadata directory, and removes empty patterns.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Organization = strings.TrimSpace(configuration.Organization)

	metadataDirectory := strings.TrimSpace(configuration.MetadataDirectory)
	if len(metadataDirectory) == 0 {
		metadataDirectory = defaultMetadataDirectoryConstant
	}
	sanitized.MetadataDirectory = configurationHomeExpander.Expand(metadataDirectory)

	sanitizedPatterns := make([]string, 0, len(configuration.Patterns))
	for _, configuredPattern := range configuration.Patterns {
		trimmedPattern := strings.TrimSpace(configuredPattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		sanitizedPatterns = append(sanitizedPatterns, trimmedPattern)
	}
	sanitized.Patterns = sanitizedPatterns

	return sanitized
}

// BlocklistFilePath returns the location of the persisted user pattern file.
func (configuration CommandConfiguration) BlocklistFilePath() string {
	return filepath.Join(configuration.MetadataDirectory, blocklistFileNameConstant)
}
