package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/linkguard/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testReport builds a minimal finished report.
func testReport(t *testing.T, raw string, score int) *model.Report {
	t.Helper()

	u, err := model.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	report := model.NewReport(u)
	report.RiskScore = score
	report.RiskLevel = model.LevelForScore(score)
	report.AddReason("No explicit risk signals were found.")
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "linkguard.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false

		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

// TestSaveCheck tests storing and listing checks.
func TestSaveCheck(t *testing.T) {
	t.Parallel()

	t.Run("stores and lists checks newest first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for i, raw := range []string{"https://a.example/", "https://b.example/", "https://c.example/"} {
			if _, err := db.SaveCheck(ctx, testReport(t, raw, i*10)); err != nil {
				t.Fatalf("failed to save check: %v", err)
			}
		}

		records, err := db.Recent(ctx, 10)
		if err != nil {
			t.Fatalf("failed to list checks: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].Host != "c.example" {
			t.Errorf("newest record must come first, got %s", records[0].Host)
		}
		if records[0].RiskScore != 20 {
			t.Errorf("unexpected score: %d", records[0].RiskScore)
		}
		if records[0].Timestamp.IsZero() {
			t.Error("timestamp must be set")
		}
	})

	t.Run("limit bounds the listing", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for i := range 5 {
			if _, err := db.SaveCheck(ctx, testReport(t, fmt.Sprintf("https://h%d.example/", i), 0)); err != nil {
				t.Fatal(err)
			}
		}

		records, err := db.Recent(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})

	t.Run("prunes the oldest rows beyond the bound", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.MaxRows = 3
		db, err := Open(t.TempDir(), opts)
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		ctx := context.Background()

		for i := range 5 {
			if _, err := db.SaveCheck(ctx, testReport(t, fmt.Sprintf("https://h%d.example/", i), 0)); err != nil {
				t.Fatal(err)
			}
		}

		count, err := db.CountChecks(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 3 {
			t.Errorf("expected 3 rows after pruning, got %d", count)
		}

		records, err := db.Recent(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if records[len(records)-1].Host != "h2.example" {
			t.Errorf("oldest surviving row must be h2.example, got %s", records[len(records)-1].Host)
		}
	})
}

// TestReport tests reloading stored reports.
func TestReport(t *testing.T) {
	t.Parallel()

	t.Run("round-trips the full report", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		original := testReport(t, "https://a.example/", 40)
		original.AddIntel("Safe Browsing: no matches")

		id, err := db.SaveCheck(ctx, original)
		if err != nil {
			t.Fatal(err)
		}

		reloaded, err := db.Report(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if reloaded == nil {
			t.Fatal("expected a stored report")
		}
		if reloaded.URL != original.URL || reloaded.RiskScore != original.RiskScore {
			t.Errorf("reloaded report differs: %+v", reloaded)
		}
		if len(reloaded.Intel) != 1 {
			t.Errorf("intel lines lost: %v", reloaded.Intel)
		}
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		report, err := db.Report(context.Background(), 12345)
		if err != nil {
			t.Fatal(err)
		}
		if report != nil {
			t.Errorf("expected nil, got %+v", report)
		}
	})
}
