package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

// processKillTimeout is how long a cancelled process group gets between the
// interrupt and the kill signal.
const processKillTimeout = 2 * time.Second

// ShellRunner runs commands through the mvdan.cc/sh interpreter.
type ShellRunner struct {
	// Env is merged on top of the process environment for every command.
	Env map[string]string
}

var _ Runner = (*ShellRunner)(nil)

// NewShellRunner returns a runner that inherits the process environment.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

func (r *ShellRunner) environ(cmd Command) expand.Environ {
	envVars := os.Environ()

	for name, value := range r.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}
	for name, value := range cmd.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}

// Run executes cmd and blocks until it exits, its timeout elapses or ctx is
// cancelled.
func (r *ShellRunner) Run(ctx context.Context, cmd Command) Result {
	start := time.Now()
	result := Result{}

	if len(cmd.Args) == 0 {
		result.Err = eris.New("empty command")
		result.ExitCode = -1
		return result
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(r.environ(cmd)),
		interp.ExecHandler(execHandler(processKillTimeout)),
		interp.StdIO(nil, &stdout, &stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		result.Err = eris.Wrapf(err, "failed to initialize runner for %s", cmd.String())
		result.ExitCode = -1
		result.Duration = time.Since(start)
		return result
	}

	err = runner.Run(ctx, callExpr(cmd.Args))
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if ctx.Err() == context.DeadlineExceeded && cmd.Timeout > 0 {
		result.TimedOut = true
		result.ExitCode = -1
		return result
	}

	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			result.ExitCode = int(status)
			return result
		}

		if ctx.Err() != nil {
			result.Err = eris.Wrapf(ctx.Err(), "%s was interrupted", cmd.String())
		} else {
			result.Err = eris.Wrapf(err, "failed to run %s", cmd.String())
		}
		result.ExitCode = -1
	}

	return result
}
