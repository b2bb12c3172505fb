package git

import (
	"context"
	"fmt"
	"os/exec"
)

// Result captures the outcome of one external command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands. It exists so the status engine can be
// tested against scripted outputs without a git binary or a repository.
type Runner interface {
	Run(ctx context.Context, args []string, cwd string) (Result, error)
}

// ExecRunner runs commands through os/exec. Only the git binary is allowed;
// anything else is rejected before it reaches the shell.
type ExecRunner struct{}

// LookupPath finds executables in PATH. Exposed as a package variable so
// tests can mock it without depending on installed binaries.
var LookupPath = exec.LookPath

func prepareAllowedCommand(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	if args[0] != "git" {
		return nil, fmt.Errorf("unsupported command %q", args[0])
	}
	// #nosec G204 -- arguments for git come from internal logic and are not shell interpolated
	return exec.CommandContext(ctx, "git", args[1:]...), nil
}

// Run executes the command and returns its output and exit code. A non-nil
// error means the process could not be started at all; a nonzero exit is
// reported through Result.ExitCode instead.
func (ExecRunner) Run(ctx context.Context, args []string, cwd string) (Result, error) {
	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	if cwd != "" {
		cmd.Dir = cwd
	}

	output, err := cmd.Output()
	res := Result{Stdout: string(output)}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return Result{ExitCode: -1}, err
		}
		res.ExitCode = exitErr.ExitCode()
		res.Stderr = string(exitErr.Stderr)
	}
	return res, nil
}
