package buildsys

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kcenon/file-manager/build-tools/pkg"
	"github.com/kcenon/file-manager/build-tools/pkg/shell"
)

// FindTestExecutable returns the first configured test executable that
// exists in the build directory, or "" if there is none.
func (b *Builder) FindTestExecutable() string {
	for _, rel := range b.Config.Tests.Executables {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.BuildDir(), rel)
		}

		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path
		}
	}

	return ""
}

// CTestArgs returns the CTest command line.
func (b *Builder) CTestArgs() []string {
	return []string{"ctest", "-C", b.Config.BuildType, "--output-on-failure"}
}

// RunTests runs the first test executable found. If there is none, or it
// fails, CTest runs over the whole build tree and decides the result.
// Each invocation is bounded by the test timeout.
func (b *Builder) RunTests(ctx context.Context) bool {
	ctx, stage := b.beginStage(ctx, StageTest)
	pkg.PrintTask("Running tests")

	timeout := b.Config.Tests.Timeout
	executableFailed := false

	if exe := b.FindTestExecutable(); exe != "" {
		res := b.invoke(ctx, "Running tests from "+exe, shell.Command{
			Args:    []string{exe},
			Dir:     b.ProjectRoot(),
			Timeout: timeout,
		})
		if res.Success() {
			log(ctx).Info().Msg("Tests completed successfully!")
			b.endStage(stage, ResultSuccess)
			return true
		}

		if b.interrupted(ctx, stage) {
			return false
		}

		log(ctx).Warn().Msg("Some tests failed")
		stage.warn("test executable failed: " + exe)
		executableFailed = true
	} else {
		log(ctx).Info().Msg("No test executable found, falling back to CTest")
	}

	res := b.invoke(ctx, "Running CTest", shell.Command{
		Args:    b.CTestArgs(),
		Dir:     b.BuildDir(),
		Timeout: timeout,
	})
	if !res.Success() {
		pkg.PrintError("Tests failed")
		b.endStage(stage, ResultFatal)
		return false
	}

	if executableFailed {
		b.endStage(stage, ResultWarning)
	} else {
		b.endStage(stage, ResultSuccess)
	}
	return true
}
