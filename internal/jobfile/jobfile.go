// Package jobfile loads declarative job descriptions from YAML files.
//
// A job file names the payload command, its arguments, the target backend and
// the resource mapping:
//
//	backend: pbs
//	command: scf_solve
//	args: mol.xyz
//	resources:
//	  nodes: 2
//	  tasks_per_node: 4
//	  time_limit: "2:0:0"
//	  module_list: [intel, mkl]
//	step_resources:
//	  tasks_per_node: 8
package jobfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hpcband/batchq/internal/batch"
)

// ErrNoCommand indicates the job file does not name a payload command
var ErrNoCommand = errors.New("job file has no command")

// Job is a declarative job description.
type Job struct {
	Backend       string          `yaml:"backend"`
	Command       string          `yaml:"command"`
	Args          string          `yaml:"args"`
	Resources     batch.Resources `yaml:"resources"`
	StepResources batch.Resources `yaml:"step_resources"`
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a job description from YAML bytes.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	if job.Command == "" {
		return nil, ErrNoCommand
	}
	return &job, nil
}
