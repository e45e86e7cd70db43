package execshell

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	commandLabelTemplateConstant            = "%s %s"
	startMessageTemplateConstant            = "Running %s"
	successMessageTemplateConstant          = "Completed %s"
	failureMessageTemplateConstant          = "Command %s failed with exit code %d"
	failureDetailTemplateConstant           = "Command %s failed with exit code %d: %s"
	executionFailureMessageTemplateConstant = "Command %s could not be executed: %s"
	cloneDescriptionTemplateConstant        = "mirror clone of %s"
	pushDescriptionTemplateConstant         = "mirror push to %s"
	remoteDescriptionTemplateConstant       = "remote configuration (%s)"
	lsRemoteDescriptionTemplateConstant     = "remote probe of %s"
	gitHubAPIDescriptionTemplateConstant    = "GitHub API call %s"
	gitHubGenericDescriptionConstant        = "GitHub CLI invocation"
	gitGenericDescriptionConstant           = "git invocation"
	argumentSeparatorConstant               = " "
	cloneSubcommandConstant                 = "clone"
	pushSubcommandConstant                  = "push"
	remoteSubcommandConstant                = "remote"
	lsRemoteSubcommandConstant              = "ls-remote"
	apiSubcommandConstant                   = "api"
	mirrorFlagConstant                      = "--mirror"
	flagPrefixConstant                      = "-"
	credentialMaskConstant                  = "${1}***@"
)

// Push URLs may embed an access token as URL userinfo, and git echoes such
// URLs back on stderr. Every rendered message passes through this mask.
var urlCredentialsPattern = regexp.MustCompile(`(?i)(https?://)[^/@\s]+@`)

// RedactCredentials masks userinfo embedded in URL-shaped text.
func RedactCredentials(text string) string {
	return urlCredentialsPattern.ReplaceAllString(text, credentialMaskConstant)
}

// RedactArguments returns a copy of the arguments with URL credentials masked.
func RedactArguments(arguments []string) []string {
	redacted := make([]string, len(arguments))
	for argumentIndex, argument := range arguments {
		redacted[argumentIndex] = RedactCredentials(argument)
	}
	return redacted
}

// CommandMessageFormatter renders human-readable descriptions of shell commands.
type CommandMessageFormatter struct{}

// FormatCommandLabel returns the executable name joined with its arguments,
// with URL credentials masked.
func (formatter CommandMessageFormatter) FormatCommandLabel(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, string(command.Name), strings.Join(RedactArguments(command.Details.Arguments), argumentSeparatorConstant))
}

// BuildStartMessage describes a command that is about to run.
func (formatter CommandMessageFormatter) BuildStartMessage(command ShellCommand) string {
	return fmt.Sprintf(startMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildSuccessMessage describes a command that completed successfully.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) > 0 {
		return fmt.Sprintf(failureDetailTemplateConstant, formatter.describeCommand(command), result.ExitCode, RedactCredentials(trimmedStandardError))
	}
	return fmt.Sprintf(failureMessageTemplateConstant, formatter.describeCommand(command), result.ExitCode)
}

// BuildExecutionFailureMessage describes a command that could not be started.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.describeCommand(command), RedactCredentials(fmt.Sprint(failure)))
}

func (formatter CommandMessageFormatter) describeCommand(command ShellCommand) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitCommand(command.Details.Arguments)
	case CommandGitHub:
		return formatter.describeGitHubCommand(command.Details.Arguments)
	default:
		return formatter.FormatCommandLabel(command)
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(arguments []string) string {
	if len(arguments) == 0 {
		return gitGenericDescriptionConstant
	}
	switch arguments[0] {
	case cloneSubcommandConstant:
		if containsArgument(arguments, mirrorFlagConstant) {
			return fmt.Sprintf(cloneDescriptionTemplateConstant, firstNonFlagArgument(arguments[1:]))
		}
	case pushSubcommandConstant:
		if containsArgument(arguments, mirrorFlagConstant) {
			return fmt.Sprintf(pushDescriptionTemplateConstant, RedactCredentials(firstNonFlagArgument(arguments[1:])))
		}
	case remoteSubcommandConstant:
		return fmt.Sprintf(remoteDescriptionTemplateConstant, strings.Join(arguments[1:], argumentSeparatorConstant))
	case lsRemoteSubcommandConstant:
		return fmt.Sprintf(lsRemoteDescriptionTemplateConstant, firstNonFlagArgument(arguments[1:]))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, gitCommandNameConstant, strings.Join(RedactArguments(arguments), argumentSeparatorConstant))
}

func (formatter CommandMessageFormatter) describeGitHubCommand(arguments []string) string {
	if len(arguments) == 0 {
		return gitHubGenericDescriptionConstant
	}
	if arguments[0] == apiSubcommandConstant && len(arguments) > 1 {
		return fmt.Sprintf(gitHubAPIDescriptionTemplateConstant, firstNonFlagArgument(arguments[1:]))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, gitHubCLICommandNameConstant, strings.Join(arguments, argumentSeparatorConstant))
}

func containsArgument(arguments []string, candidate string) bool {
	for _, argument := range arguments {
		if argument == candidate {
			return true
		}
	}
	return false
}

func firstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		if !strings.HasPrefix(argument, flagPrefixConstant) {
			return argument
		}
	}
	return ""
}
