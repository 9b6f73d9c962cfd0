package batch

import (
	"fmt"
	"sort"
)

// Resource keys recognized by the backends. Unknown keys are passed through
// unvalidated so callers can carry site-specific settings forward.
const (
	KeyNodes            = "nodes"              // int: node count
	KeyTasksPerNode     = "tasks_per_node"     // int: tasks per node
	KeyCpusPerTask      = "cpus_per_task"      // int: cpus per task
	KeyGpus             = "gpus"               // int: gpu count
	KeyTimeLimit        = "time_limit"         // string: wall-time, "H:M:S"
	KeyMemLimit         = "mem_limit"          // int: memory in GB, negative = unset
	KeyPartition        = "partition"          // string: partition/queue name
	KeyAccount          = "account"            // string
	KeyQos              = "qos"                // string
	KeyConstraints      = "constraint_list"    // []string
	KeyLicenses         = "license_list"       // []string
	KeyExcludeList      = "exclude_list"       // []string: excluded nodes
	KeyModuleUnloadList = "module_unload_list" // []string
	KeyModuleList       = "module_list"        // []string
	KeySourceList       = "source_list"        // []string: shell scripts to source
	KeyEnvs             = "envs"               // map[string]string, nil = no export section
	KeyWithMPI          = "with_mpi"           // bool: prefix command with the parallel launcher
	KeyCudaMultiTasks   = "cuda_multi_tasks"   // bool: allow multiple CUDA tasks per gpu
	KeyAllowFailure     = "allow_failure"      // bool: do not abort the batch on payload failure
	KeyExclusive        = "exclusive"          // bool: step-level exclusive node access
)

// Resources is a mapping of named computational-resource parameters.
// All recognized keys are optional; DefaultResources fills the missing ones.
type Resources map[string]any

// DefaultResources fills every recognized key that is missing from res with
// its documented default and returns the result. A supplied map is filled in
// place; a nil map produces a fresh one. Existing keys are left untouched.
// This operation cannot fail.
func DefaultResources(res Resources) Resources {
	if res == nil {
		res = Resources{}
	}
	defaultItem(res, KeyNodes, 1)
	defaultItem(res, KeyTasksPerNode, 1)
	defaultItem(res, KeyCpusPerTask, 1)
	defaultItem(res, KeyGpus, 0)
	defaultItem(res, KeyTimeLimit, "1:0:0")
	defaultItem(res, KeyMemLimit, -1)
	defaultItem(res, KeyPartition, "")
	defaultItem(res, KeyAccount, "")
	defaultItem(res, KeyQos, "")
	defaultItem(res, KeyConstraints, []string{})
	defaultItem(res, KeyLicenses, []string{})
	defaultItem(res, KeyExcludeList, []string{})
	defaultItem(res, KeyModuleUnloadList, []string{})
	defaultItem(res, KeyModuleList, []string{})
	defaultItem(res, KeySourceList, []string{})
	defaultItem(res, KeyEnvs, nil)
	defaultItem(res, KeyWithMPI, false)
	defaultItem(res, KeyCudaMultiTasks, false)
	defaultItem(res, KeyAllowFailure, false)
	return res
}

func defaultItem(res Resources, key string, value any) {
	if _, ok := res[key]; !ok {
		res[key] = value
	}
}

// Has reports whether a key is present with a non-nil value.
func (r Resources) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Int returns an integer-valued key. Values decoded from YAML may arrive as
// int, int64 or float64; all are accepted. Missing or mistyped keys yield 0.
func (r Resources) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Str returns a string-valued key, or "" if missing or mistyped.
func (r Resources) Str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns a boolean-valued key, or false if missing or mistyped.
func (r Resources) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// List returns a list-valued key. Both []string and YAML's []any decoding are
// accepted; insertion order is preserved.
func (r Resources) List(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// Envs returns the environment mapping, or nil when the envs key is absent
// or nil (meaning: emit no export section at all).
func (r Resources) Envs() map[string]string {
	switch v := r[KeyEnvs].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for key, val := range v {
			out[key] = fmt.Sprintf("%v", val)
		}
		return out
	default:
		return nil
	}
}

// EnvKeys returns the environment variable names in sorted order so that
// script generation is deterministic.
func (r Resources) EnvKeys() []string {
	envs := r.Envs()
	if envs == nil {
		return nil
	}
	keys := make([]string, 0, len(envs))
	for key := range envs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
