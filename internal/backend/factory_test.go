package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wealthwarriors/internal/cache"
	"wealthwarriors/internal/config"
	"wealthwarriors/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", CacheTTL: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" || got.CacheTTL != time.Second {
		t.Errorf("FromAppConfig() = %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file", Config{Type: FileBackend, StateFilePath: "s.json"}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	tests := []struct {
		name       string
		config     Config
		wantStates bool
		wantLedger bool
		wantCache  bool
	}{
		{"memory", Config{Type: MemoryBackend}, true, true, false},
		{"file", Config{Type: FileBackend, StateFilePath: filepath.Join(dir, "state.json")}, true, false, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "a.db")}, false, true, false},
		{"sqlite cached", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "b.db"), CacheTTL: time.Minute}, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()

			if (res.States != nil) != tt.wantStates {
				t.Errorf("States present = %v, want %v", res.States != nil, tt.wantStates)
			}
			if (res.Ledger != nil) != tt.wantLedger {
				t.Errorf("Ledger present = %v, want %v", res.Ledger != nil, tt.wantLedger)
			}
			if res.Ping != nil {
				if err := res.Ping(ctx); err != nil {
					t.Errorf("Ping() error = %v", err)
				}
			} else if tt.wantLedger && !tt.wantStates {
				t.Error("relational backend without Ping")
			}
			if _, ok := res.Families.(*cache.FamilyStore); ok != tt.wantCache {
				t.Errorf("cached = %v, want %v", ok, tt.wantCache)
			}

			fam := core.Family{ID: "f1", Name: "Baratheon"}
			if err := res.Families.SaveFamily(ctx, fam); err != nil {
				t.Fatalf("SaveFamily() error = %v", err)
			}
			got, err := res.Families.LoadFamily(ctx)
			if err != nil || got == nil || got.Name != "Baratheon" {
				t.Errorf("LoadFamily() = %+v, %v", got, err)
			}
		})
	}
}
