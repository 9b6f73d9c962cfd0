package remote

import (
	"strings"
	"testing"
)

// The working-directory creation command must be runnable before the
// directory exists, so it must not carry the cd prefix BlockCall adds.
func TestMkdirCommandRunsWithoutWorkdir(t *testing.T) {
	cmd := mkdirCommand("/scratch/user/mol-0042")

	want := "mkdir -p '/scratch/user/mol-0042'"
	if cmd != want {
		t.Errorf("mkdirCommand = %q, want %q", cmd, want)
	}
	if strings.Contains(cmd, "cd ") {
		t.Errorf("mkdirCommand %q must not cd into the directory it creates", cmd)
	}
}

func TestWorkdirCommandPrefixesCd(t *testing.T) {
	cmd := workdirCommand("/scratch/user/mol-0042", "qsub sub.sh")

	want := "cd '/scratch/user/mol-0042' && qsub sub.sh"
	if cmd != want {
		t.Errorf("workdirCommand = %q, want %q", cmd, want)
	}
}

func TestWriteFileCommandCreatesParentOnly(t *testing.T) {
	cmd := writeFileCommand("/scratch/user/mol-0042/sub.sh")

	want := "mkdir -p '/scratch/user/mol-0042' && cat > '/scratch/user/mol-0042/sub.sh' && sync"
	if cmd != want {
		t.Errorf("writeFileCommand = %q, want %q", cmd, want)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/scratch/plain", "'/scratch/plain'"},
		{"/scratch/with space", "'/scratch/with space'"},
		{"/scratch/it's", `'/scratch/it'\''s'`},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
