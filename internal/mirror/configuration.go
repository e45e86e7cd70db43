package mirror

import (
	"path/filepath"
	"strings"
	"time"

	pathutils "github.com/temirov/gitmirror/internal/utils/path"
)

const (
	defaultMetadataDirectoryConstant   = "~/.gitmirror"
	defaultDailyLimitConstant          = 100
	defaultCloneTimeoutSecondsConstant = 60
	defaultRemoteProtocolConstant      = "https"
	quotaStateFileNameConstant         = "quota.json"
	queueStateFileNameConstant         = "retry_queue.json"
	blocklistFileNameConstant          = "blocklist.yaml"
)

var configurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for mirror lifecycle commands.
type CommandConfiguration struct {
	Organization        string   `mapstructure:"organization"`
	DailyLimit          int      `mapstructure:"daily_limit"`
	MetadataDirectory   string   `mapstructure:"metadata_directory"`
	CloneTimeoutSeconds int      `mapstructure:"clone_timeout_seconds"`
	TempDirectory       string   `mapstructure:"temp_directory"`
	Blocklist           []string `mapstructure:"blocklist"`
	RemoteProtocol      string   `mapstructure:"remote_protocol"`
}

// DefaultCommandConfiguration returns baseline configuration values for mirror commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DailyLimit:          defaultDailyLimitConstant,
		MetadataDirectory:   defaultMetadataDirectoryConstant,
		CloneTimeoutSeconds: defaultCloneTimeoutSecondsConstant,
		RemoteProtocol:      defaultRemoteProtocolConstant,
	}
}

// Sanitize trims configured values and applies defaults for unset fields. A
// daily limit of zero is kept as configured so an operator can pause mirror
// creation; only negative values fall back to the default.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Organization = strings.TrimSpace(configuration.Organization)

	if sanitized.DailyLimit < 0 {
		sanitized.DailyLimit = defaultDailyLimitConstant
	}
	if sanitized.CloneTimeoutSeconds <= 0 {
		sanitized.CloneTimeoutSeconds = defaultCloneTimeoutSecondsConstant
	}

	metadataDirectory := strings.TrimSpace(configuration.MetadataDirectory)
	if len(metadataDirectory) == 0 {
		metadataDirectory = defaultMetadataDirectoryConstant
	}
	sanitized.MetadataDirectory = configurationHomeExpander.Expand(metadataDirectory)

	sanitized.TempDirectory = configurationHomeExpander.Expand(strings.TrimSpace(configuration.TempDirectory))

	remoteProtocol := strings.ToLower(strings.TrimSpace(configuration.RemoteProtocol))
	if len(remoteProtocol) == 0 {
		remoteProtocol = defaultRemoteProtocolConstant
	}
	sanitized.RemoteProtocol = remoteProtocol

	sanitizedPatterns := make([]string, 0, len(configuration.Blocklist))
	for _, configuredPattern := range configuration.Blocklist {
		trimmedPattern := strings.TrimSpace(configuredPattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		sanitizedPatterns = append(sanitizedPatterns, trimmedPattern)
	}
	sanitized.Blocklist = sanitizedPatterns

	return sanitized
}

// DefaultConfigurationValues exposes baseline configuration map entries for
// the mirror tool section keyed by the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + ".daily_limit":           defaults.DailyLimit,
		configurationPrefix + ".metadata_directory":    defaults.MetadataDirectory,
		configurationPrefix + ".clone_timeout_seconds": defaults.CloneTimeoutSeconds,
		configurationPrefix + ".remote_protocol":       defaults.RemoteProtocol,
	}
}

// CloneTimeout returns the configured ceiling for a single git transfer operation.
func (configuration CommandConfiguration) CloneTimeout() time.Duration {
	return time.Duration(configuration.CloneTimeoutSeconds) * time.Second
}

// QuotaStatePath returns the location of the persisted quota state.
func (configuration CommandConfiguration) QuotaStatePath() string {
	return filepath.Join(configuration.MetadataDirectory, quotaStateFileNameConstant)
}

// QueueStatePath returns the location of the persisted retry queue.
func (configuration CommandConfiguration) QueueStatePath() string {
	return filepath.Join(configuration.MetadataDirectory, queueStateFileNameConstant)
}

// BlocklistFilePath returns the location of the persisted user pattern file.
func (configuration CommandConfiguration) BlocklistFilePath() string {
	return filepath.Join(configuration.MetadataDirectory, blocklistFileNameConstant)
}
