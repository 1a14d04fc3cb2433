package buildsys

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcenon/file-manager/build-tools/pkg/shell"
)

var coreTargets = []string{"utilities", "thread_base", "logger", "thread_pool", "container", "network"}

func TestDetectBackend(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, BackendCMake, DetectBackend(dir))

	writeFile(t, filepath.Join(dir, "Makefile"), 0o644)
	assert.Equal(t, BackendMake, DetectBackend(dir))

	writeFile(t, filepath.Join(dir, "build.ninja"), 0o644)
	assert.Equal(t, BackendNinja, DetectBackend(dir))
}

func TestDetectBackendIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "build.ninja")
	assert.Equal(t, BackendCMake, DetectBackend(dir))
}

func TestBuildArgs(t *testing.T) {
	b := newTestBuilder(t, &fakeRunner{})

	assert.Equal(t, []string{"ninja"}, b.BuildArgs(BackendNinja, ""))
	assert.Equal(t, []string{"ninja", "logger"}, b.BuildArgs(BackendNinja, "logger"))
	assert.Equal(t, []string{"make", "-j3"}, b.BuildArgs(BackendMake, ""))
	assert.Equal(t, []string{"make", "logger"}, b.BuildArgs(BackendMake, "logger"))
	assert.Equal(t, []string{"cmake", "--build", ".", "--config", "Release"}, b.BuildArgs(BackendCMake, ""))
	assert.Equal(t, []string{"cmake", "--build", ".", "--config", "Release", "--target", "logger"}, b.BuildArgs(BackendCMake, "logger"))
}

func TestCompilePrimarySucceeds(t *testing.T) {
	runner := &fakeRunner{}
	b := newTestBuilder(t, runner)
	writeFile(t, filepath.Join(b.BuildDir(), "build.ninja"), 0o644)
	writeFile(t, filepath.Join(b.BuildDir(), "Makefile"), 0o644)

	require.True(t, b.Compile(context.Background()))
	assert.Equal(t, []string{"ninja"}, runner.commandLines())
	assert.Equal(t, BackendNinja, b.Report().Backend)
	assert.Equal(t, ResultSuccess, b.Report().Stage(StageCompile).Result)
}

func TestCompileFallbackBuildsCoreTargetsInOrder(t *testing.T) {
	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result { return failed(2) }}
	b := newTestBuilder(t, runner)
	writeFile(t, filepath.Join(b.BuildDir(), "Makefile"), 0o644)

	require.True(t, b.Compile(context.Background()))

	expected := []string{"make -j3"}
	for _, target := range coreTargets {
		expected = append(expected, "make "+target)
	}
	assert.Equal(t, expected, runner.commandLines())

	stage := b.Report().Stage(StageCompile)
	assert.Equal(t, ResultWarning, stage.Result)
	assert.Len(t, stage.Warnings, len(coreTargets))
}

func TestCompileFallbackWithGenericDriver(t *testing.T) {
	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result {
		if len(cmd.Args) == 5 {
			return failed(1)
		}
		return shell.Result{}
	}}
	b := newTestBuilder(t, runner)

	require.True(t, b.Compile(context.Background()))
	require.Len(t, runner.calls, 1+len(coreTargets))
	for idx, target := range coreTargets {
		assert.Equal(t, b.BuildArgs(BackendCMake, target), runner.calls[idx+1].Args)
		assert.Equal(t, b.BuildDir(), runner.calls[idx+1].Dir)
	}
	assert.Empty(t, b.Report().Stage(StageCompile).Warnings)
}

func TestCompileStrictFallback(t *testing.T) {
	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result {
		if len(cmd.Args) == 2 && cmd.Args[1] == "network" {
			return failed(2)
		}
		if len(cmd.Args) == 2 && cmd.Args[1] == "-j3" {
			return failed(2)
		}
		return shell.Result{}
	}}
	b := newTestBuilder(t, runner)
	b.Config.StrictFallback = true
	writeFile(t, filepath.Join(b.BuildDir(), "Makefile"), 0o644)

	assert.False(t, b.Compile(context.Background()))
	assert.Len(t, runner.calls, 1+len(coreTargets))
	assert.Equal(t, ResultFatal, b.Report().Stage(StageCompile).Result)
}

func TestCompileUsesCommandTimeout(t *testing.T) {
	runner := &fakeRunner{}
	b := newTestBuilder(t, runner)
	b.Config.CommandTimeout = 42

	require.True(t, b.Compile(context.Background()))
	assert.EqualValues(t, 42, runner.calls[0].Timeout)
}

func TestCompileStopsWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result {
		cancel()
		return shell.Result{ExitCode: -1, Err: context.Canceled}
	}}
	b := newTestBuilder(t, runner)
	writeFile(t, filepath.Join(b.BuildDir(), "Makefile"), 0o644)

	assert.False(t, b.Compile(ctx))
	assert.Equal(t, []string{"make -j3"}, runner.commandLines())
	assert.Equal(t, ResultFatal, b.Report().Stage(StageCompile).Result)
}

func TestCompileFallbackStopsWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{respond: func(cmd shell.Command) shell.Result {
		if cmd.Args[len(cmd.Args)-1] == "logger" {
			cancel()
		}
		return failed(2)
	}}
	b := newTestBuilder(t, runner)
	writeFile(t, filepath.Join(b.BuildDir(), "Makefile"), 0o644)

	assert.False(t, b.Compile(ctx))
	assert.Equal(t, []string{"make -j3", "make utilities", "make thread_base", "make logger"}, runner.commandLines())
	assert.Equal(t, ResultFatal, b.Report().Stage(StageCompile).Result)
}
