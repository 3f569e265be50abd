package launch

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}

	var out bytes.Buffer
	r := &ExecRunner{Stdout: &out}
	dir := filepath.Join(t.TempDir(), "game")

	code, err := r.Run(context.Background(), &Command{Path: "/bin/sh", Args: []string{"-c", "pwd; exit 3"}, Dir: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if out.Len() == 0 {
		t.Error("expected stdout to be captured")
	}

	code, err = r.Run(context.Background(), &Command{Path: "/bin/sh", Args: []string{"-c", "true"}})
	if err != nil || code != 0 {
		t.Errorf("Run() = %d, %v; want 0, nil", code, err)
	}

	if _, err := r.Run(context.Background(), &Command{Path: filepath.Join(t.TempDir(), "no-such-java")}); err == nil {
		t.Error("Run() should fail for a missing executable")
	}
}
