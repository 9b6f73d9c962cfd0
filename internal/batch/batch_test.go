package batch

import (
	"errors"
	"strings"
	"testing"

	"github.com/hpcband/batchq/internal/remote"
)

// fakeContext is an in-memory remote.Context. callFn scripts the outcome of
// shell commands; every executed command is recorded in calls.
type fakeContext struct {
	files  map[string]string
	calls  []string
	callFn func(cmd string) (exitCode int, stdout, stderr string)
}

func newFakeContext() *fakeContext {
	return &fakeContext{files: make(map[string]string)}
}

func (f *fakeContext) Root() string { return "/remote/work" }

func (f *fakeContext) WriteFile(name, content string) error {
	f.files[name] = content
	return nil
}

func (f *fakeContext) ReadFile(name string) (string, error) {
	content, ok := f.files[name]
	if !ok {
		return "", remote.ErrFileNotFound
	}
	return content, nil
}

func (f *fakeContext) FileExists(name string) bool {
	_, ok := f.files[name]
	return ok
}

func (f *fakeContext) BlockCall(cmd string) (int, string, string, error) {
	f.calls = append(f.calls, cmd)
	if f.callFn == nil {
		return 0, "", "", nil
	}
	code, stdout, stderr := f.callFn(cmd)
	return code, stdout, stderr, nil
}

func (f *fakeContext) BlockCheckCall(cmd string) (string, string, error) {
	code, stdout, stderr, err := f.BlockCall(cmd)
	if err != nil {
		return stdout, stderr, err
	}
	if code != 0 {
		return stdout, stderr, remote.NewCommandError(cmd, code, stderr)
	}
	return stdout, stderr, nil
}

func TestNewBackend(t *testing.T) {
	ctx := newFakeContext()

	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{name: "pbs", wantName: "pbs"},
		{name: "PBS", wantName: "pbs"},
		{name: "torque", wantName: "pbs"},
		{name: "slurm", wantName: "slurm"},
		{name: "lsf", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		backend, err := New(tt.name, ctx)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownBackend) {
				t.Errorf("New(%q) error = %v, want ErrUnknownBackend", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) failed: %v", tt.name, err)
			continue
		}
		if backend.Name() != tt.wantName {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, backend.Name(), tt.wantName)
		}
	}
}

func TestBuildScriptTouchesFinishTag(t *testing.T) {
	pbs := NewPBS(newFakeContext())
	res := DefaultResources(nil)

	script := BuildScript(pbs, "scf_solve", "mol.xyz", res, nil)

	if !strings.HasPrefix(script, "#!/bin/bash -l\n") {
		t.Errorf("script does not start with the shebang:\n%s", script)
	}
	if !strings.Contains(script, "scf_solve mol.xyz\n") {
		t.Errorf("script does not contain the payload command:\n%s", script)
	}
	if !strings.Contains(script, "if test $? -ne 0; then exit 1; fi\n") {
		t.Errorf("script does not abort on payload failure:\n%s", script)
	}
	if !strings.HasSuffix(script, "touch "+FinishTagFileName+"\n") {
		t.Errorf("script does not end by touching the finish tag:\n%s", script)
	}

	// The failure guard must come before the tag touch, so a failed payload
	// never signals success.
	guard := strings.Index(script, "if test $? -ne 0")
	tag := strings.Index(script, "touch "+FinishTagFileName)
	if guard > tag {
		t.Error("failure guard appears after the finish-tag touch")
	}
}

func TestBuildScriptAllowFailure(t *testing.T) {
	pbs := NewPBS(newFakeContext())
	res := DefaultResources(Resources{KeyAllowFailure: true})

	script := BuildScript(pbs, "scf_solve", "mol.xyz", res, nil)

	if strings.Contains(script, "exit 1") {
		t.Errorf("allow_failure script still aborts on payload failure:\n%s", script)
	}
	if !strings.HasSuffix(script, "touch "+FinishTagFileName+"\n") {
		t.Errorf("allow_failure script does not touch the finish tag:\n%s", script)
	}
}

func TestBuildScriptWithStepOverride(t *testing.T) {
	pbs := NewPBS(newFakeContext())
	res := DefaultResources(nil)
	step := Resources{KeyNodes: 2, KeyTasksPerNode: 8}

	script := BuildScript(pbs, "scf_solve", "mol.xyz", res, step)

	if !strings.Contains(script, "srun -N 2 -n 16 scf_solve mol.xyz\n") {
		t.Errorf("script does not carry the step launcher prefix:\n%s", script)
	}
}

func TestBuildScriptDeterministic(t *testing.T) {
	pbs := NewPBS(newFakeContext())
	res := DefaultResources(Resources{
		KeyModuleList: []string{"intel", "mkl"},
		KeyEnvs:       map[string]string{"OMP_NUM_THREADS": "4", "KMP_BLOCKTIME": "0", "PYTHONPATH": "/opt/lib"},
	})

	first := BuildScript(pbs, "scf_solve", "mol.xyz", res, nil)
	second := BuildScript(pbs, "scf_solve", "mol.xyz", res, nil)
	if first != second {
		t.Errorf("two builds with identical input differ:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestSubmitJobPipeline(t *testing.T) {
	ctx := newFakeContext()
	ctx.callFn = func(cmd string) (int, string, string) {
		if strings.HasPrefix(cmd, "qsub ") {
			return 0, "2201.server\n", ""
		}
		t.Fatalf("unexpected command %q", cmd)
		return 1, "", ""
	}
	pbs := NewPBS(ctx)

	jobID, err := SubmitJob(pbs, "scf_solve 1> run.log", "mol.xyz", nil, nil)
	if err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}
	if jobID != "2201.server" {
		t.Errorf("job id = %q, want %q", jobID, "2201.server")
	}

	script, ok := ctx.files[ScriptFileName]
	if !ok {
		t.Fatalf("submission script %s was not written", ScriptFileName)
	}
	if !strings.Contains(script, "scf_solve mol.xyz\n") {
		t.Errorf("script did not strip the inline redirection:\n%s", script)
	}
	if ctx.files[JobIDFileName] != "2201.server" {
		t.Errorf("persisted job id = %q, want %q", ctx.files[JobIDFileName], "2201.server")
	}
}

func TestCheckBeforeSubIsNoOp(t *testing.T) {
	// The admission hook performs no action in the base backends; sites with
	// submission throttling override it.
	for _, name := range BackendNames() {
		backend, err := New(name, newFakeContext())
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if err := backend.CheckBeforeSub(DefaultResources(nil)); err != nil {
			t.Errorf("%s CheckBeforeSub returned %v, want nil", name, err)
		}
	}
}

func TestJobStatusString(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   string
	}{
		{StatusUnsubmitted, "unsubmitted"},
		{StatusWaiting, "waiting"},
		{StatusRunning, "running"},
		{StatusFinished, "finished"},
		{StatusTerminated, "terminated"},
		{StatusUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("JobStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, status := range []JobStatus{StatusUnsubmitted, StatusWaiting, StatusRunning, StatusUnknown} {
		if status.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", status)
		}
	}
	for _, status := range []JobStatus{StatusFinished, StatusTerminated} {
		if !status.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", status)
		}
	}
}
