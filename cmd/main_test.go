package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "schedule", "deliver"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
}

func TestMigrateThenDeliverOnSQLite(t *testing.T) {
	log = logger.NewNop()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	run := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	if _, err := run("migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	out, err := run("deliver")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(out, "due=0 sent=0") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := run("schedule", "--user", "not-a-uuid"); err == nil {
		t.Fatalf("expected invalid user id error")
	}
	out, err = run("schedule")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !strings.Contains(out, "users=0") {
		t.Fatalf("unexpected output %q", out)
	}
}
