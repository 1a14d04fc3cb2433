package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DefaultFile is looked up in the working directory when --config isn't passed.
const DefaultFile = "fmbuild.toml"

// Config describes all configuration options
type Config struct {
	ProjectRoot string `toml:"project_root" env:"PROJECT_ROOT" usage:"Project to build; detected from the working directory if empty"`
	BuildDir    string `toml:"build_dir" env:"BUILD_DIR" default:"build" usage:"Build directory, relative to the project root"`
	VcpkgRoot   string `toml:"vcpkg_root" env:"VCPKG_ROOT" default:"../vcpkg" usage:"vcpkg checkout, relative to the project root"`
	BuildType   string `toml:"build_type" env:"BUILD_TYPE" default:"Release" usage:"CMAKE_BUILD_TYPE (Debug, Release, RelWithDebInfo or MinSizeRel)"`
	SharedLibs  bool   `toml:"shared_libs" env:"SHARED_LIBS" default:"false" usage:"Pass -DBUILD_SHARED_LIBS=ON instead of OFF"`
	Generator   string `toml:"generator" env:"GENERATOR" usage:"CMake generator passed with -G; CMake picks one if empty"`
	Jobs        int    `toml:"jobs" env:"JOBS" default:"0" usage:"Parallel make jobs; 0 uses the CPU count"`

	CleanDirs       []string `toml:"clean_dirs" env:"CLEAN_DIRS" default:"build,build-debug,lib,bin" usage:"Directories removed before a full build"`
	OutputDirs      []string `toml:"output_dirs" env:"OUTPUT_DIRS" default:"lib,bin" usage:"Output directories created next to the build directory"`
	FallbackTargets []string `toml:"fallback_targets" env:"FALLBACK_TARGETS" default:"utilities,thread_base,logger,thread_pool,container,network" usage:"Targets built one by one when the full build fails"`
	StrictFallback  bool     `toml:"strict_fallback" env:"STRICT_FALLBACK" default:"false" usage:"Fail the build if any fallback target fails"`

	CommandTimeout time.Duration `toml:"command_timeout" env:"COMMAND_TIMEOUT" default:"0s" usage:"Bound for configure and compile commands; 0 disables it"`

	Tests struct {
		Executables []string      `toml:"executables" env:"EXECUTABLES" default:"messaging_system/unittest/unittest,bin/unittest" usage:"Test executables relative to the build directory, first match wins"`
		Timeout     time.Duration `toml:"timeout" env:"TIMEOUT" default:"5m" usage:"Bound for each test invocation"`
	} `toml:"tests" env:"TESTS"`

	Log struct {
		Level string `toml:"level" env:"LEVEL" default:"info"`
		JSON  bool   `toml:"json" env:"JSON" default:"false" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log" env:"LOG"`

	Report  string `toml:"report" env:"REPORT" default:"build-report.yaml" usage:"Build report written into the build directory; empty disables it"`
	Metrics struct {
		Textfile string `toml:"textfile" env:"TEXTFILE" usage:"Write Prometheus metrics to this file (node exporter textfile format)"`
	} `toml:"metrics" env:"METRICS"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

var buildTypes = map[string]bool{
	"Debug":          true,
	"Release":        true,
	"RelWithDebInfo": true,
	"MinSizeRel":     true,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// Flags are handled by cobra, so aconfig only reads defaults, files and the environment.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "FMBUILD",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the configuration from the given files (or DefaultFile) and the environment.
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "Failed to load config")
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if cfg.BuildDir == "" {
		return eris.New(`Invalid value for build_dir: must not be empty`)
	}

	if !buildTypes[cfg.BuildType] {
		return eris.Errorf(`Invalid value for build_type: %s`, cfg.BuildType)
	}

	if cfg.Jobs < 0 {
		return eris.Errorf(`Invalid value for jobs: %d`, cfg.Jobs)
	}

	if cfg.CommandTimeout < 0 {
		return eris.Errorf(`Invalid value for command_timeout: %s`, cfg.CommandTimeout)
	}

	if cfg.Tests.Timeout <= 0 {
		return eris.Errorf(`Invalid value for tests.timeout: %s (must be positive)`, cfg.Tests.Timeout)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// ParallelJobs returns the number of make jobs, falling back to the CPU count.
func (cfg *Config) ParallelJobs() int {
	if cfg.Jobs > 0 {
		return cfg.Jobs
	}

	return runtime.NumCPU()
}

// ResolvePath makes path absolute relative to the project root.
func (cfg *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(cfg.ProjectRoot, path)
}

// ToolchainFile returns the vcpkg CMake integration file.
func (cfg *Config) ToolchainFile() string {
	return filepath.Join(cfg.ResolvePath(cfg.VcpkgRoot), "scripts", "buildsystems", "vcpkg.cmake")
}
