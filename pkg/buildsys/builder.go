package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/schollz/progressbar/v3"

	"github.com/kcenon/file-manager/build-tools/pkg"
	"github.com/kcenon/file-manager/build-tools/pkg/config"
	"github.com/kcenon/file-manager/build-tools/pkg/metrics"
	"github.com/kcenon/file-manager/build-tools/pkg/shell"
)

// Builder runs the build stages for one project.
type Builder struct {
	Config   *config.Config
	Runner   shell.Runner
	Recorder metrics.Recorder
	// Progress receives progress bars; nil hides them.
	Progress io.Writer

	report  *Report
	current *StageReport
}

// NewBuilder prepares a builder for the project described by cfg.
// cfg.ProjectRoot must already be resolved.
func NewBuilder(cfg *config.Config, runner shell.Runner) *Builder {
	b := &Builder{
		Config:   cfg,
		Runner:   runner,
		Recorder: metrics.NoopRecorder{},
	}
	b.report = &Report{
		RunID:       nanoid.New(),
		ProjectRoot: cfg.ProjectRoot,
		BuildDir:    b.BuildDir(),
		Started:     time.Now(),
	}

	return b
}

// Report returns the report of the current run.
func (b *Builder) Report() *Report {
	return b.report
}

// ProjectRoot is the directory of the top-level CMakeLists.txt.
func (b *Builder) ProjectRoot() string {
	return b.Config.ProjectRoot
}

// BuildDir is the absolute CMake binary directory.
func (b *Builder) BuildDir() string {
	return b.Config.ResolvePath(b.Config.BuildDir)
}

func (b *Builder) beginStage(ctx context.Context, name Stage) (context.Context, *StageReport) {
	logger := log(ctx).With().
		Str("run", b.report.RunID).
		Str("stage", string(name)).
		Logger()

	stage := &StageReport{Name: name, started: time.Now()}
	b.report.Stages = append(b.report.Stages, stage)
	b.current = stage

	return WithLogger(ctx, &logger), stage
}

func (b *Builder) endStage(stage *StageReport, result StageResult) {
	stage.Result = result
	stage.Duration = time.Since(stage.started)
	b.Recorder.ObserveStage(string(stage.Name), result.label(), stage.Duration)

	if b.current == stage {
		b.current = nil
	}
}

// interrupted ends stage as fatal if ctx was cancelled. A cancelled run never
// goes through fallbacks.
func (b *Builder) interrupted(ctx context.Context, stage *StageReport) bool {
	if ctx.Err() == nil {
		return false
	}

	log(ctx).Error().Err(ctx.Err()).Msg("Build interrupted")
	pkg.PrintError("Interrupted")
	stage.warn("interrupted")
	b.endStage(stage, ResultFatal)
	return true
}

// invoke runs cmd and logs the command line, its output and its exit code.
func (b *Builder) invoke(ctx context.Context, description string, cmd shell.Command) shell.Result {
	logger := log(ctx)
	cmdLine := cmd.String()
	logger.Info().Str("dir", cmd.Dir).Msgf("%s: %s", description, cmdLine)

	result := b.Runner.Run(ctx, cmd)

	if out := strings.TrimSpace(result.Stdout); out != "" {
		logger.Info().Msg("STDOUT: " + out)
	}
	if out := strings.TrimSpace(result.Stderr); out != "" {
		logger.Warn().Msg("STDERR: " + out)
	}
	if result.TimedOut {
		logger.Error().Msgf("Command timed out after %s!", cmd.Timeout)
	}
	if result.Err != nil {
		logger.Error().Err(result.Err).Msg("Command failed with exception")
	}
	logger.Info().Int("exit_code", result.ExitCode).Msgf("Exit code: %d", result.ExitCode)

	invocation := Invocation{
		Description: description,
		Command:     cmdLine,
		Dir:         cmd.Dir,
		ExitCode:    result.ExitCode,
		Duration:    result.Duration,
		TimedOut:    result.TimedOut,
	}
	if result.Err != nil {
		invocation.Error = result.Err.Error()
	}

	stageName := ""
	if b.current != nil {
		b.current.Commands = append(b.current.Commands, invocation)
		stageName = string(b.current.Name)
	}
	b.Recorder.ObserveCommand(stageName, result.Success(), result.Duration)

	return result
}

// command builds a command for the build directory with the configured bound.
func (b *Builder) command(args ...string) shell.Command {
	return shell.Command{
		Args:    args,
		Dir:     b.BuildDir(),
		Timeout: b.Config.CommandTimeout,
	}
}

func (b *Builder) progressBar(max int, desc string) *progressbar.ProgressBar {
	if b.Progress == nil || os.Getenv("CI") == "true" {
		return progressbar.NewOptions(max, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(b.Progress),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.Progress, "\n")
		}),
	)
}

// finish closes the run and writes the report file (if configured).
func (b *Builder) finish(ctx context.Context, mode string, success bool, planned []Stage, reportName string) {
	b.report.Mode = mode
	b.report.Success = success
	b.report.Duration = time.Since(b.report.Started)
	b.report.markSkipped(planned)
	b.Recorder.ObserveBuild(success, b.report.Duration)

	if reportName == "" {
		return
	}

	path := reportName
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.BuildDir(), reportName)
	}

	err := b.report.WriteFile(path)
	if err != nil {
		log(ctx).Warn().Err(err).Msg("Failed to write the build report")
		return
	}

	log(ctx).Debug().Str("path", path).Msg("Build report written")
}
