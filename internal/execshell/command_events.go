package execshell

// CommandEventObserver receives lifecycle notifications for executed shell
// commands. Observers run synchronously on the executing goroutine.
type CommandEventObserver interface {
	// CommandStarted fires before the command runs.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the command produced an execution result,
	// including non-zero exits.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the command could not produce a result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
