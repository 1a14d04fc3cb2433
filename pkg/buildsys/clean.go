package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/multierr"

	"github.com/kcenon/file-manager/build-tools/pkg"
)

// insideRoot reports whether path is strictly below root.
func insideRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Clean removes the configured build output directories. Missing
// directories are skipped and failed deletes are logged; Clean never fails.
func (b *Builder) Clean(ctx context.Context) bool {
	ctx, stage := b.beginStage(ctx, StageClean)
	pkg.PrintTask("Cleaning build directories")

	var failures error
	result := ResultSuccess
	for _, dir := range b.Config.CleanDirs {
		path := b.Config.ResolvePath(dir)
		if !insideRoot(b.ProjectRoot(), path) {
			log(ctx).Warn().Str("path", path).Msgf("Refusing to remove %s because it is outside of the project", path)
			stage.warn("outside of project: " + path)
			result = ResultWarning
			continue
		}

		_, err := os.Lstat(path)
		if os.IsNotExist(err) {
			log(ctx).Info().Str("path", path).Msgf("Directory %s does not exist, skipping", path)
			continue
		}

		log(ctx).Info().Str("path", path).Msgf("Removing %s", path)
		err = os.RemoveAll(path)
		if err != nil {
			log(ctx).Warn().Err(err).Str("path", path).Msgf("Failed to remove %s", path)
			stage.warn(err.Error())
			failures = multierr.Append(failures, eris.Wrapf(err, "failed to remove %s", path))
			result = ResultWarning
		}
	}

	if failures != nil {
		log(ctx).Warn().Err(failures).Msgf("%d directories could not be removed", len(multierr.Errors(failures)))
	}

	b.endStage(stage, result)
	return true
}

// Prepare creates the build directory and the output directories next to it.
// Only a failure to create the build directory is fatal.
func (b *Builder) Prepare(ctx context.Context) bool {
	ctx, stage := b.beginStage(ctx, StagePrepare)
	pkg.PrintTask("Setting up build directories")

	buildDir := b.BuildDir()
	err := os.MkdirAll(buildDir, 0o755)
	if err != nil {
		log(ctx).Error().Err(err).Str("path", buildDir).Msg("Directory setup failed!")
		b.endStage(stage, ResultFatal)
		return false
	}
	log(ctx).Info().Str("path", buildDir).Msgf("Created directory: %s", buildDir)

	result := ResultSuccess
	for _, dir := range b.Config.OutputDirs {
		path := b.Config.ResolvePath(dir)
		err = os.MkdirAll(path, 0o755)
		if err != nil {
			log(ctx).Warn().Err(err).Str("path", path).Msgf("Failed to create %s", path)
			stage.warn(err.Error())
			result = ResultWarning
			continue
		}

		log(ctx).Info().Str("path", path).Msgf("Created directory: %s", path)
	}

	b.endStage(stage, result)
	return true
}
