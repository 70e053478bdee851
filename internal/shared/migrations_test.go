package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_audit_runs" {
			t.Errorf("expected first migration create_audit_runs, got %q", migrations[0].Name)
		}
	})

	t.Run("parseMigrationName", func(t *testing.T) {
		tc := []struct {
			name    string
			version int
			label   string
			dir     string
			ok      bool
		}{
			{"0001_create_audit_runs_up.sql", 1, "create_audit_runs", "up", true},
			{"0012_add_index_down.sql", 12, "add_index", "down", true},
			{"readme.sql", 0, "", "", false},
			{"abc_create_up.sql", 0, "", "", false},
			{"0003_create_sideways.sql", 0, "", "", false},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				v, label, dir, ok := parseMigrationName(tt.name)
				if ok != tt.ok || v != tt.version || label != tt.label || dir != tt.dir {
					t.Errorf("got (%d, %q, %q, %v), want (%d, %q, %q, %v)", v, label, dir, ok, tt.version, tt.label, tt.dir, tt.ok)
				}
			})
		}
	})

	t.Run("splitStatements drops comments and blanks", func(t *testing.T) {
		stmts := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- trailing\n;SELECT 1 -- inline\n")
		if len(stmts) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
		}
		if stmts[1] != "SELECT 1" {
			t.Errorf("expected inline comment stripped, got %q", stmts[1])
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		if _, err := db.Exec("SELECT 1 FROM audit_runs LIMIT 1"); err != nil {
			t.Errorf("audit_runs table should exist after migrations: %v", err)
		}

		var seq int
		if err := db.QueryRow("SELECT value FROM audit_runs_sequence WHERE id = 1").Scan(&seq); err != nil || seq != 0 {
			t.Errorf("expected seeded sequence 0, got %d (%v)", seq, err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount); err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		for i := range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations (pass %d): %v", i+1, err)
			}
		}

		states, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read migration status: %v", err)
		}
		for _, s := range states {
			if !s.Applied {
				t.Errorf("migration %d should be applied", s.Version)
			}
		}
	})

	t.Run("OpenDatabase migrates", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Path: ":memory:"})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM audit_runs LIMIT 1"); err != nil {
			t.Errorf("audit_runs table should exist: %v", err)
		}
	})
}
