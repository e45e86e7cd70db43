package quota

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/utils"
)

const (
	quotaCommandUseConstant              = "quota"
	quotaCommandShortDescriptionConstant = "Show today's mirror creation quota"
	quotaCommandLongDescriptionConstant  = "quota reports how many mirrors were created today and how many creations remain before the daily limit."
	quotaReportTemplateConstant          = "QUOTA: used %d remaining %d limit %d\n"
)

// TrackerProvider supplies the quota tracker; overridden in tests.
type TrackerProvider func(configuration CommandConfiguration) *Tracker

// CommandBuilder assembles the quota Cobra command.
type CommandBuilder struct {
	ConfigurationProvider func() CommandConfiguration
	TrackerProvider       TrackerProvider
}

// Build constructs the quota command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           quotaCommandUseConstant,
		Short:         quotaCommandShortDescriptionConstant,
		Long:          quotaCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runReport,
	}
	return command, nil
}

func (builder *CommandBuilder) runReport(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	tracker := builder.resolveTracker(configuration)

	usedToday, countError := tracker.CountToday()
	if countError != nil {
		return countError
	}
	remaining, remainingError := tracker.Remaining()
	if remainingError != nil {
		return remainingError
	}

	fmt.Fprintf(command.OutOrStdout(), quotaReportTemplateConstant, usedToday, remaining, tracker.Limit())
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveTracker(configuration CommandConfiguration) *Tracker {
	if builder.TrackerProvider != nil {
		return builder.TrackerProvider(configuration)
	}
	return NewTracker(configuration.StateFilePath(), configuration.DailyLimit, utils.SystemClock{})
}
