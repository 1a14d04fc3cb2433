package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcenon/file-manager/build-tools/pkg/metrics"
	"github.com/kcenon/file-manager/build-tools/pkg/shell"
)

// cmakeProject behaves like a CMake project with Makefile output: configure
// generates the Makefile and the full build result is controlled by buildOK.
func cmakeProject(t *testing.T, buildOK bool) func(shell.Command) shell.Result {
	return func(cmd shell.Command) shell.Result {
		switch cmd.Args[0] {
		case "cmake":
			require.NoError(t, os.WriteFile(filepath.Join(cmd.Dir, "Makefile"), []byte("all:\n"), 0o644))
			return shell.Result{Stdout: "-- Build files have been written"}
		case "make":
			if buildOK {
				return shell.Result{}
			}
			return failed(2)
		}

		return shell.Result{}
	}
}

func TestFullBuild(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond = cmakeProject(t, true)
	recorder := &recordingRecorder{}
	b := newTestBuilder(t, runner)
	b.Recorder = recorder
	// stale output from an earlier build
	writeFile(t, filepath.Join(b.BuildDir(), "build.ninja"), 0o644)

	require.True(t, b.FullBuild(context.Background()))

	lines := runner.commandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "cmake", runner.calls[0].Args[0])
	assert.Equal(t, "make -j3", lines[1])

	report, err := ReadReport(filepath.Join(b.BuildDir(), "build-report.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModeFullBuild, report.Mode)
	assert.True(t, report.Success)
	assert.Equal(t, BackendMake, report.Backend)
	assert.Equal(t, b.Report().RunID, report.RunID)
	require.Len(t, report.Stages, len(fullBuildStages))
	for idx, stage := range report.Stages {
		assert.Equal(t, fullBuildStages[idx], stage.Name)
		assert.Equal(t, ResultSuccess, stage.Result)
	}
	assert.Len(t, report.Commands(), 2)

	assert.Len(t, recorder.stages, len(fullBuildStages))
	assert.Equal(t, 2, recorder.commands)
	assert.Equal(t, []bool{true}, recorder.builds)
}

func TestFullBuildFallsBackToCoreTargets(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond = cmakeProject(t, false)
	b := newTestBuilder(t, runner)

	require.True(t, b.FullBuild(context.Background()))

	expected := []string{"make -j3"}
	for _, target := range coreTargets {
		expected = append(expected, "make "+target)
	}
	assert.Equal(t, expected, runner.commandLines()[1:])
	assert.Equal(t, ResultWarning, b.Report().Stage(StageCompile).Result)
	assert.True(t, b.Report().Success)
}

func TestFullBuildStopsAfterConfigureFailure(t *testing.T) {
	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result { return failed(1) }}
	recorder := &recordingRecorder{}
	b := newTestBuilder(t, runner)
	b.Recorder = recorder

	assert.False(t, b.FullBuild(context.Background()))
	require.Len(t, runner.calls, 2)
	for _, cmd := range runner.calls {
		assert.Equal(t, "cmake", cmd.Args[0])
	}

	report := b.Report()
	assert.False(t, report.Success)
	assert.Equal(t, ResultFatal, report.Stage(StageConfigure).Result)
	assert.Equal(t, ResultSkipped, report.Stage(StageCompile).Result)
	assert.Equal(t, ResultSkipped, report.Stage(StageArtifacts).Result)
	assert.Equal(t, []stageObservation{
		{string(StageClean), metrics.ResultSuccess},
		{string(StagePrepare), metrics.ResultSuccess},
		{string(StageConfigure), metrics.ResultFatal},
	}, recorder.stages)
	assert.Equal(t, []bool{false}, recorder.builds)
	assert.FileExists(t, filepath.Join(b.BuildDir(), "build-report.yaml"))
}

func TestFullBuildWithoutReport(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond = cmakeProject(t, true)
	b := newTestBuilder(t, runner)
	b.Config.Report = ""

	require.True(t, b.FullBuild(context.Background()))
	assert.NoFileExists(t, filepath.Join(b.BuildDir(), "build-report.yaml"))
}

func TestFullBuildInterruptedDuringCompile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configure := cmakeProject(t, true)
	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result {
		if cmd.Args[0] == "make" {
			cancel()
			return shell.Result{ExitCode: -1, Err: context.Canceled}
		}
		return configure(cmd)
	}}
	recorder := &recordingRecorder{}
	b := newTestBuilder(t, runner)
	b.Recorder = recorder

	assert.False(t, b.FullBuild(ctx))
	assert.Equal(t, "make -j3", runner.commandLines()[len(runner.calls)-1])
	assert.Equal(t, []bool{false}, recorder.builds)

	report, err := ReadReport(filepath.Join(b.BuildDir(), "build-report.yaml"))
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, ResultFatal, report.Stage(StageCompile).Result)
	assert.Equal(t, ResultSkipped, report.Stage(StageArtifacts).Result)
}

func TestFullBuildAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	b := newTestBuilder(t, runner)
	mkdirs(t, b.ProjectRoot(), "build")

	assert.False(t, b.FullBuild(ctx))
	assert.Empty(t, runner.calls)
	assert.DirExists(t, b.BuildDir())
	for _, stage := range b.Report().Stages {
		assert.Equal(t, ResultSkipped, stage.Result)
	}
}
