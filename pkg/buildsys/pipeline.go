package buildsys

import (
	"context"
	"strings"

	"github.com/kcenon/file-manager/build-tools/pkg"
)

const (
	ModeFullBuild = "build"
	ModeTests     = "tests"
)

// FullBuild runs clean, prepare, configure, compile and the artifact listing
// in that order. A fatal stage or a cancelled ctx stops the sequence; the
// remaining stages are reported as skipped.
func (b *Builder) FullBuild(ctx context.Context) bool {
	logger := log(ctx).With().Str("run", b.report.RunID).Logger()
	ctx = WithLogger(ctx, &logger)
	logger.Info().Str("path", b.ProjectRoot()).Msgf("Starting build of %s...", b.ProjectRoot())

	success := true
	for _, stage := range []func(context.Context) bool{b.Clean, b.Prepare, b.Configure, b.Compile} {
		if ctx.Err() != nil {
			logger.Error().Err(ctx.Err()).Msg("Build interrupted")
			success = false
			break
		}

		if !stage(ctx) {
			success = false
			break
		}
	}

	if success && ctx.Err() != nil {
		logger.Error().Err(ctx.Err()).Msg("Build interrupted")
		success = false
	}

	if success {
		b.ListArtifacts(ctx)
		logger.Info().Msg("Build process completed!")
		pkg.PrintTask("Done")
	} else {
		logger.Error().Msg("Build failed!")
	}

	b.finish(ctx, ModeFullBuild, success, fullBuildStages, b.Config.Report)
	return success
}

// TestRun runs the test stage on its own and writes a test report next to
// the build report.
func (b *Builder) TestRun(ctx context.Context) bool {
	logger := log(ctx).With().Str("run", b.report.RunID).Logger()
	ctx = WithLogger(ctx, &logger)

	success := b.RunTests(ctx)
	b.finish(ctx, ModeTests, success, []Stage{StageTest}, testReportName(b.Config.Report))
	return success
}

// testReportName derives "test-report.yaml" from "build-report.yaml" (or
// "<name>.tests.<ext>" for other names).
func testReportName(reportName string) string {
	if reportName == "" {
		return ""
	}

	if strings.Contains(reportName, "build-report") {
		return strings.Replace(reportName, "build-report", "test-report", 1)
	}

	dot := strings.LastIndex(reportName, ".")
	if dot <= 0 {
		return reportName + ".tests"
	}

	return reportName[:dot] + ".tests" + reportName[dot:]
}
