package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitmirror/internal/execshell"
)

const (
	commandStartedMessageTemplateConstant          = "Running %s"
	commandCompletedMessageTemplateConstant        = "Completed %s"
	commandFailedExitCodeMessageTemplateConstant   = "%s failed with exit code %d"
	commandExecutionFailureMessageTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant         = " (in %s)"
	commandArgumentsJoinSeparatorConstant          = " "
	standardErrorSuffixTemplateConstant            = ": %s"
	unknownFailureMessageConstant                  = "unknown error"
)

// CommandEventFormatter builds human-readable messages for command lifecycle
// events. URL credentials are masked in every rendered message; push URLs can
// carry an access token as userinfo.
type CommandEventFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandEventFormatter) BuildStartedMessage(command execshell.ShellCommand) string {
	return fmt.Sprintf(commandStartedMessageTemplateConstant, formatter.commandLabel(command))
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandEventFormatter) BuildSuccessMessage(command execshell.ShellCommand) string {
	return fmt.Sprintf(commandCompletedMessageTemplateConstant, formatter.commandLabel(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code,
// appending trimmed standard error output when present.
func (formatter CommandEventFormatter) BuildFailureMessage(command execshell.ShellCommand, result execshell.ExecutionResult) string {
	failureMessage := fmt.Sprintf(commandFailedExitCodeMessageTemplateConstant, formatter.commandLabel(command), result.ExitCode)
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) > 0 {
		failureMessage += fmt.Sprintf(standardErrorSuffixTemplateConstant, execshell.RedactCredentials(trimmedStandardError))
	}
	return failureMessage
}

// BuildExecutionFailureMessage describes a command that never produced a result.
func (formatter CommandEventFormatter) BuildExecutionFailureMessage(command execshell.ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(commandExecutionFailureMessageTemplateConstant, formatter.commandLabel(command), failureMessage)
}

func (formatter CommandEventFormatter) commandLabel(command execshell.ShellCommand) string {
	labelBuilder := strings.Builder{}
	labelBuilder.WriteString(string(command.Name))
	if len(command.Details.Arguments) > 0 {
		labelBuilder.WriteString(commandArgumentsJoinSeparatorConstant)
		labelBuilder.WriteString(strings.Join(execshell.RedactArguments(command.Details.Arguments), commandArgumentsJoinSeparatorConstant))
	}
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		labelBuilder.WriteString(fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory))
	}
	return labelBuilder.String()
}

// ConsoleCommandEventLogger renders command lifecycle events through a zap
// logger configured for human-readable output. It implements
// execshell.CommandEventObserver.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandEventFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: CommandEventFormatter{}}
}

// CommandStarted logs the command about to run.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted logs success at info level and non-zero exits at warn level.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed logs commands that never produced a result.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}
