// Package shell runs external commands for the build orchestrator.
//
// Commands go through the mvdan.cc/sh interpreter instead of os/exec so that
// they are resolved, logged and terminated the same way on every platform.
// Callers depend on the Runner interface; tests substitute a scripted fake.
package shell

import (
	"context"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// Command describes a single external invocation.
type Command struct {
	Args []string
	Dir  string
	Env  map[string]string
	// Timeout bounds the invocation; zero means no bound.
	Timeout time.Duration
}

// String returns the command line as it would be typed into a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return ""
	}

	buf := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	err := printer.Print(&buf, callExpr(c.Args))
	if err != nil {
		return strings.Join(c.Args, " ")
	}

	return buf.String()
}

// Result is what a single invocation produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
	// Err is set when the command could not be run at all (i.e. the
	// interpreter failed). A non-zero exit code is not an error.
	Err error
}

// Success reports whether the command ran to completion with exit code 0.
func (r Result) Success() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Runner executes commands. Implementations never panic and report every
// failure through the returned Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) Result

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) Result {
	return f(ctx, cmd)
}

func callExpr(args []string) *syntax.CallExpr {
	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, len(args))
	for idx, arg := range args {
		cmd.Args[idx] = &syntax.Word{
			Parts: []syntax.WordPart{quoteArg(arg)},
		}
	}

	return cmd
}

// quoteArg turns a literal argument into a word part that expands back to
// exactly the same string.
func quoteArg(value string) syntax.WordPart {
	if value == "" {
		return &syntax.SglQuoted{Value: ""}
	}

	if !strings.ContainsAny(value, " \t\n$'\"`\\*?[]{}()<>|&;#~") {
		return &syntax.Lit{Value: value}
	}

	if !strings.Contains(value, "'") {
		return &syntax.SglQuoted{Value: value}
	}

	escaped := strings.Builder{}
	for _, r := range value {
		switch r {
		case '"', '\\', '$', '`':
			escaped.WriteRune('\\')
		}
		escaped.WriteRune(r)
	}

	return &syntax.DblQuoted{
		Parts: []syntax.WordPart{&syntax.Lit{Value: escaped.String()}},
	}
}
