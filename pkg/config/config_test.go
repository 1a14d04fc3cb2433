package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "build", cfg.BuildDir)
	assert.Equal(t, "Release", cfg.BuildType)
	assert.False(t, cfg.SharedLibs)
	assert.Equal(t, []string{"build", "build-debug", "lib", "bin"}, cfg.CleanDirs)
	assert.Equal(t, []string{"lib", "bin"}, cfg.OutputDirs)
	assert.Equal(t, []string{"utilities", "thread_base", "logger", "thread_pool", "container", "network"}, cfg.FallbackTargets)
	assert.Equal(t, []string{"messaging_system/unittest/unittest", "bin/unittest"}, cfg.Tests.Executables)
	assert.Equal(t, 5*time.Minute, cfg.Tests.Timeout)
	assert.Equal(t, time.Duration(0), cfg.CommandTimeout)
	assert.Equal(t, "build-report.yaml", cfg.Report)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmbuild.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
build_type = "Debug"
jobs = 4
fallback_targets = ["logger"]

[tests]
timeout = "30s"

[log]
level = "debug"
`), 0o644))

	t.Setenv("FMBUILD_BUILD_DIR", "out")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Debug", cfg.BuildType)
	assert.Equal(t, 4, cfg.ParallelJobs())
	assert.Equal(t, []string{"logger"}, cfg.FallbackTargets)
	assert.Equal(t, 30*time.Second, cfg.Tests.Timeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
	assert.Equal(t, "out", cfg.BuildDir)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(*Config){
		"build type": func(c *Config) { c.BuildType = "Fast" },
		"jobs":       func(c *Config) { c.Jobs = -1 },
		"log level":  func(c *Config) { c.Log.Level = "loud" },
		"build dir":  func(c *Config) { c.BuildDir = "" },
		"timeout":    func(c *Config) { c.Tests.Timeout = 0 },
		"cmd bound":  func(c *Config) { c.CommandTimeout = -time.Second },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX absolute paths")
	}

	cfg := &Config{ProjectRoot: filepath.FromSlash("/src/file_manager"), VcpkgRoot: "../vcpkg"}

	assert.Equal(t, filepath.FromSlash("/src/file_manager/build"), cfg.ResolvePath("build"))
	assert.Equal(t, filepath.FromSlash("/opt/out"), cfg.ResolvePath(filepath.FromSlash("/opt/out")))
	assert.Equal(t, filepath.FromSlash("/src/vcpkg/scripts/buildsystems/vcpkg.cmake"), cfg.ToolchainFile())
}

func TestParallelJobsDefaultsToCPUCount(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, runtime.NumCPU(), cfg.ParallelJobs())
}
