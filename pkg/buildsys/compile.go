package buildsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kcenon/file-manager/build-tools/pkg"
)

// DetectBackend checks which build files CMake generated in buildDir.
// build.ninja wins over a Makefile; without either the generic
// `cmake --build` driver is used.
func DetectBackend(buildDir string) Backend {
	if isFile(filepath.Join(buildDir, "build.ninja")) {
		return BackendNinja
	}

	if isFile(filepath.Join(buildDir, "Makefile")) {
		return BackendMake
	}

	return BackendCMake
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// BuildArgs returns the command line that builds target with backend. An
// empty target builds everything.
func (b *Builder) BuildArgs(backend Backend, target string) []string {
	switch backend {
	case BackendNinja:
		if target == "" {
			return []string{"ninja"}
		}
		return []string{"ninja", target}
	case BackendMake:
		if target == "" {
			return []string{"make", "-j" + strconv.Itoa(b.Config.ParallelJobs())}
		}
		return []string{"make", target}
	default:
		args := []string{"cmake", "--build", ".", "--config", b.Config.BuildType}
		if target != "" {
			args = append(args, "--target", target)
		}
		return args
	}
}

// Compile builds the project with the detected backend. If the full build
// fails, each fallback target is built on its own. Failed fallback targets
// are only logged unless strict_fallback is set, so Compile succeeds after
// the fallback ran. A cancelled context fails the stage instead.
func (b *Builder) Compile(ctx context.Context) bool {
	ctx, stage := b.beginStage(ctx, StageCompile)
	pkg.PrintTask("Building the project")

	backend := DetectBackend(b.BuildDir())
	b.report.Backend = backend
	log(ctx).Info().Str("backend", string(backend)).Msgf("Building with %s", backend)

	res := b.invoke(ctx, fmt.Sprintf("Building with %s", backend), b.command(b.BuildArgs(backend, "")...))
	if res.Success() {
		b.endStage(stage, ResultSuccess)
		return true
	}

	if b.interrupted(ctx, stage) {
		return false
	}

	log(ctx).Warn().Msg("Full build failed, trying core libraries only...")
	pkg.PrintSubtask("Building core libraries")

	targets := b.Config.FallbackTargets
	bar := b.progressBar(len(targets), "core libraries")
	failed := 0
	for _, target := range targets {
		if b.interrupted(ctx, stage) {
			bar.Finish()
			return false
		}

		res = b.invoke(ctx, "Building "+target, b.command(b.BuildArgs(backend, target)...))
		if !res.Success() {
			log(ctx).Warn().Str("target", target).Msgf("Failed to build %s", target)
			stage.warn("failed to build " + target)
			failed++
		}
		bar.Add(1)
	}
	bar.Finish()

	if failed > 0 && b.Config.StrictFallback {
		log(ctx).Error().Msgf("%d of %d core libraries failed to build", failed, len(targets))
		pkg.PrintError("Build failed")
		b.endStage(stage, ResultFatal)
		return false
	}

	b.endStage(stage, ResultWarning)
	return true
}
