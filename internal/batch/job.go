package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/polzovatel/relocate/internal/config"
)

var ErrInvalidJob = errors.New("invalid job")

// Case is one relocation: find Locator in Old, report its counterpart in New.
type Case struct {
	Name    string `yaml:"name"`
	Old     string `yaml:"old"`
	New     string `yaml:"new"`
	Locator string `yaml:"locator"`
}

// Job is the YAML job file. Optional matching settings override the
// environment configuration.
type Job struct {
	Policy      string   `yaml:"policy"`
	VerifyExact *bool    `yaml:"verify_exact"`
	Predicates  []string `yaml:"predicates"`
	Concurrency int      `yaml:"concurrency"`
	Cases       []Case   `yaml:"cases"`
}

// LoadJob reads a job file. Relative document paths are taken relative to
// the job file's directory.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job: %w", err)
	}
	job, err := ParseJob(data)
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range job.Cases {
		job.Cases[i].Old = resolvePath(base, job.Cases[i].Old)
		job.Cases[i].New = resolvePath(base, job.Cases[i].New)
	}
	return job, nil
}

// ParseJob decodes and validates a job document.
func ParseJob(data []byte) (Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if len(job.Cases) == 0 {
		return Job{}, fmt.Errorf("%w: no cases", ErrInvalidJob)
	}
	for i := range job.Cases {
		c := &job.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
		if c.Old == "" || c.New == "" || c.Locator == "" {
			return Job{}, fmt.Errorf("%w: case %q needs old, new and locator", ErrInvalidJob, c.Name)
		}
	}
	if job.Concurrency < 0 {
		return Job{}, fmt.Errorf("%w: negative concurrency", ErrInvalidJob)
	}
	return job, nil
}

// Apply overlays the job's matching settings on cfg.
func (j Job) Apply(cfg config.Config) config.Config {
	if j.Policy != "" {
		cfg.Policy = j.Policy
	}
	if j.VerifyExact != nil {
		cfg.VerifyExact = *j.VerifyExact
	}
	if len(j.Predicates) > 0 {
		cfg.Predicates = j.Predicates
	}
	if j.Concurrency > 0 {
		cfg.Concurrency = j.Concurrency
	}
	return cfg
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
