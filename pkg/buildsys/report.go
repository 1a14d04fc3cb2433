package buildsys

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Report summarizes one run of the tool.
type Report struct {
	RunID       string         `yaml:"run_id"`
	Mode        string         `yaml:"mode"`
	ProjectRoot string         `yaml:"project_root"`
	BuildDir    string         `yaml:"build_dir"`
	Backend     Backend        `yaml:"backend,omitempty"`
	Started     time.Time      `yaml:"started"`
	Duration    time.Duration  `yaml:"duration"`
	Success     bool           `yaml:"success"`
	Stages      []*StageReport `yaml:"stages"`
	Artifacts   []Artifact     `yaml:"artifacts,omitempty"`
}

// Stage returns the report of the named stage, or nil if it hasn't run.
func (r *Report) Stage(name Stage) *StageReport {
	for _, stage := range r.Stages {
		if stage.Name == name {
			return stage
		}
	}

	return nil
}

// Commands returns every recorded invocation in execution order.
func (r *Report) Commands() []Invocation {
	result := []Invocation{}
	for _, stage := range r.Stages {
		result = append(result, stage.Commands...)
	}

	return result
}

func (r *Report) markSkipped(planned []Stage) {
	for _, name := range planned {
		if r.Stage(name) == nil {
			r.Stages = append(r.Stages, &StageReport{Name: name, Result: ResultSkipped})
		}
	}
}

// WriteFile stores the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "failed to encode report")
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// ReadReport loads a report written by WriteFile.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	var report Report
	err = yaml.Unmarshal(data, &report)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	return &report, nil
}
