package models

import (
	"context"
	"testing"
)

func TestWithSQLiteBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"./db/lumen.db":                   "./db/lumen.db?_pragma=busy_timeout(5000)",
		"./db/lumen.db?cache=shared":      "./db/lumen.db?cache=shared&_pragma=busy_timeout(5000)",
		"file:x?mode=memory&cache=shared": "file:x?mode=memory&cache=shared",
		"a.db?_pragma=busy_timeout(100)":  "a.db?_pragma=busy_timeout(100)",
	}
	for in, want := range cases {
		if got := withSQLiteBusyTimeout(in); got != want {
			t.Fatalf("withSQLiteBusyTimeout(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := openDialector("oracle", "dsn"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	for _, driver := range []string{"", "sqlite", "Postgres"} {
		if _, err := openDialector(driver, "dsn"); err != nil {
			t.Fatalf("driver %q should be supported: %v", driver, err)
		}
	}
}

func TestInitDBInMemory(t *testing.T) {
	prev := DB
	t.Cleanup(func() { DB = prev })

	if err := InitDB("sqlite", "file:models_init_test?mode=memory&cache=shared", DBPoolConfig{MaxOpenConns: 1}); err != nil {
		t.Fatalf("init db failed: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
