package buildsys

import (
	"context"
	"os"

	"github.com/kcenon/file-manager/build-tools/pkg"
)

func onOff(value bool) string {
	if value {
		return "ON"
	}

	return "OFF"
}

// ConfigureArgs returns the cmake command line, optionally with the vcpkg
// toolchain integration.
func (b *Builder) ConfigureArgs(withToolchain bool) []string {
	cfg := b.Config
	args := []string{"cmake"}

	if withToolchain {
		args = append(args, "-DCMAKE_TOOLCHAIN_FILE="+cfg.ToolchainFile())
	}

	args = append(args,
		"-DCMAKE_BUILD_TYPE="+cfg.BuildType,
		"-DBUILD_SHARED_LIBS="+onOff(cfg.SharedLibs),
	)

	if cfg.Generator != "" {
		args = append(args, "-G", cfg.Generator)
	}

	return append(args, b.ProjectRoot())
}

// Configure runs CMake with the vcpkg toolchain and, if that fails, once more
// without it. It returns false if both attempts failed, which is fatal.
func (b *Builder) Configure(ctx context.Context) bool {
	ctx, stage := b.beginStage(ctx, StageConfigure)
	pkg.PrintTask("CMake configuration")

	toolchain := b.Config.ToolchainFile()
	if _, err := os.Stat(toolchain); err != nil {
		log(ctx).Warn().Str("path", toolchain).Msgf("vcpkg toolchain file %s not found", toolchain)
	}

	res := b.invoke(ctx, "Configuring with vcpkg", b.command(b.ConfigureArgs(true)...))
	if res.Success() {
		b.endStage(stage, ResultSuccess)
		return true
	}

	if b.interrupted(ctx, stage) {
		return false
	}

	log(ctx).Warn().Msg("vcpkg configuration failed, trying without vcpkg...")
	pkg.PrintSubtask("Retrying without vcpkg")

	res = b.invoke(ctx, "Configuring without vcpkg", b.command(b.ConfigureArgs(false)...))
	if res.Success() {
		stage.warn("configured without the vcpkg toolchain")
		b.endStage(stage, ResultWarning)
		return true
	}

	log(ctx).Error().Msg("CMake configuration completely failed!")
	pkg.PrintError("CMake configuration failed")
	b.endStage(stage, ResultFatal)
	return false
}
