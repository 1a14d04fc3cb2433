package buildsys

import (
	"time"

	"github.com/kcenon/file-manager/build-tools/pkg/metrics"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageClean     Stage = "clean"
	StagePrepare   Stage = "prepare"
	StageConfigure Stage = "configure"
	StageCompile   Stage = "compile"
	StageArtifacts Stage = "artifacts"
	StageTest      Stage = "test"
)

// fullBuildStages lists the stages of a full build in execution order.
var fullBuildStages = []Stage{StageClean, StagePrepare, StageConfigure, StageCompile, StageArtifacts}

// StageResult classifies how a stage ended. The values mirror metrics.ResultLabel.
type StageResult string

const (
	// ResultSuccess means the primary path worked.
	ResultSuccess StageResult = "success"
	// ResultWarning means the stage only got through its fallback or had
	// best-effort failures.
	ResultWarning StageResult = "warning"
	// ResultFatal ends the pipeline.
	ResultFatal StageResult = "fatal"
	// ResultSkipped marks stages that never ran because an earlier one was fatal.
	ResultSkipped StageResult = "skipped"
)

func (r StageResult) label() metrics.ResultLabel {
	return metrics.ResultLabel(r)
}

// Backend is the tool that performs the actual compilation.
type Backend string

const (
	BackendNinja Backend = "ninja"
	BackendMake  Backend = "make"
	// BackendCMake is the generic `cmake --build` driver.
	BackendCMake Backend = "cmake"
)

// ArtifactKind distinguishes libraries from executables.
type ArtifactKind string

const (
	ArtifactLibrary    ArtifactKind = "library"
	ArtifactExecutable ArtifactKind = "executable"
)

// Artifact is a build output found in the build directory.
type Artifact struct {
	// Path is relative to the build directory and uses forward slashes.
	Path string       `yaml:"path"`
	Kind ArtifactKind `yaml:"kind"`
}

// Invocation records one external command.
type Invocation struct {
	Description string        `yaml:"description"`
	Command     string        `yaml:"command"`
	Dir         string        `yaml:"dir"`
	ExitCode    int           `yaml:"exit_code"`
	Duration    time.Duration `yaml:"duration"`
	TimedOut    bool          `yaml:"timed_out,omitempty"`
	Error       string        `yaml:"error,omitempty"`
}

// StageReport is the outcome of one stage.
type StageReport struct {
	Name     Stage         `yaml:"name"`
	Result   StageResult   `yaml:"result"`
	Duration time.Duration `yaml:"duration"`
	Commands []Invocation  `yaml:"commands,omitempty"`
	Warnings []string      `yaml:"warnings,omitempty"`

	started time.Time
}

func (s *StageReport) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
