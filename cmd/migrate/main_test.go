package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/wolfman30/pharmacare-bot/migrations"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run(nil, "", logging.New("error"))
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) < 3 {
		t.Fatalf("expected at least 3 up migrations, got %v", ups)
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(migrations.FS, down); err != nil {
			t.Fatalf("missing %s for %s", down, up)
		}
	}
}
