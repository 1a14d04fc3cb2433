package shell

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

// execHandler starts external commands in their own process group. On
// cancellation the whole group gets a termination signal and, after
// killTimeout, a kill. Wait gives up on the output pipes after killTimeout
// so orphaned grandchildren can't hold the runner.
func execHandler(killTimeout time.Duration) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)

		path, err := interp.LookPathDir(hc.Dir, hc.Env, args[0])
		if err != nil {
			fmt.Fprintln(hc.Stderr, err)
			return interp.NewExitStatus(127)
		}

		cmd := exec.CommandContext(ctx, path, args[1:]...)
		cmd.Args[0] = args[0]
		cmd.Dir = hc.Dir
		cmd.Env = environList(hc.Env)
		cmd.Stdout = hc.Stdout
		cmd.Stderr = hc.Stderr
		cmd.WaitDelay = killTimeout
		stop := setProcessGroup(cmd, killTimeout)
		defer stop()

		err = cmd.Run()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch err := err.(type) {
		case nil:
			return nil
		case *exec.ExitError:
			code := err.ExitCode()
			if code < 0 {
				// killed by a signal
				code = 1
			}
			return interp.NewExitStatus(uint8(code))
		case *exec.Error:
			fmt.Fprintf(hc.Stderr, "%v\n", err)
			return interp.NewExitStatus(127)
		default:
			return err
		}
	}
}

// environList turns the exported variables of env into KEY=value pairs.
func environList(env expand.Environ) []string {
	list := []string{}
	env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported && vr.Kind == expand.String {
			list = append(list, name+"="+vr.Str)
		}
		return true
	})

	return list
}
