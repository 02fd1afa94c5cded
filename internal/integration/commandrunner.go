package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandSpec holds everything needed to run one external program.
type CommandSpec struct {
	Name  string
	Args  []string
	Stdin io.Reader
}

// CommandResult captures the outcome of an external invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner runs external programs. The tone player and speech
// synthesizer go through it so tests can substitute a fake.
type CommandRunner interface {
	// Run executes spec and waits for it. A non-zero exit is reported in the
	// result, not as an error; an error means the program could not run.
	Run(ctx context.Context, spec CommandSpec) (*CommandResult, error)
	// LookPath reports the resolved path of name, or an error when it is not
	// installed.
	LookPath(name string) (string, error)
}

type execRunner struct{}

// NewCommandRunner returns a CommandRunner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (execRunner) Run(ctx context.Context, spec CommandSpec) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin
	}

	err := cmd.Run()

	result := &CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return result, fmt.Errorf("executing %s: %w", spec.Name, err)
		}
	}
	return result, nil
}

// runChecked runs spec and turns a non-zero exit into an error carrying the
// program's stderr.
func runChecked(ctx context.Context, runner CommandRunner, spec CommandSpec) error {
	result, err := runner.Run(ctx, spec)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = "no output"
		}
		return fmt.Errorf("%s exited with code %d: %s", spec.Name, result.ExitCode, msg)
	}
	return nil
}

// splitCommand splits a configured command line such as "espeak -s 150" into
// the program and its leading arguments.
func splitCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// firstAvailable returns the first candidate the runner can find on PATH.
func firstAvailable(runner CommandRunner, candidates []string) (string, bool) {
	for _, c := range candidates {
		if _, err := runner.LookPath(c); err == nil {
			return c, true
		}
	}
	return "", false
}
