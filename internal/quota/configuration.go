package quota

import (
	"path/filepath"
	"strings"

	pathutils "github.com/temirov/gitmirror/internal/utils/path"
)

const (
	defaultMetadataDirectoryConstant = "~/.gitmirror"
	quotaStateFileNameConstant       = "quota.json"
)

var configurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for quota tracking.
type CommandConfiguration struct {
	DailyLimit        int    `mapstructure:"daily_limit"`
	MetadataDirectory string `mapstructure:"metadata_directory"`
}

// DefaultCommandConfiguration returns baseline configuration values for quota tracking.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DailyLimit:        defaultDailyLimitConstant,
		MetadataDirectory: defaultMetadataDirectoryConstant,
	}
}

// Sanitize normalizes the configured limit and expands the metadata
// directory. A zero limit is kept as configured; only negative values fall
// back to the default.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.DailyLimit < 0 {
		sanitized.DailyLimit = defaultDailyLimitConstant
	}

	metadataDirectory := strings.TrimSpace(configuration.MetadataDirectory)
	if len(metadataDirectory) == 0 {
		metadataDirectory = defaultMetadataDirectoryConstant
	}
	sanitized.MetadataDirectory = configurationHomeExpander.Expand(metadataDirectory)

	return sanitized
}

// StateFilePath returns the location of the persisted quota state document.
func (configuration CommandConfiguration) StateFilePath() string {
	return filepath.Join(configuration.MetadataDirectory, quotaStateFileNameConstant)
}
