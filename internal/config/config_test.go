package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/fakebook/internal/priority"
)

const sampleConfig = `
database: /tmp/fake.db
music_dir: /music
sources:
  - code: Skr
    name: Skrivarna
    priority: 1
  - code: Fak
    name: Fakebook Index
    priority: 2
canonicals:
  - name: Real Book Vol 1
    priority: 1
    file: realbook1.pdf
search:
  dedup: canonicals
  limit: 25
server:
  port: 9000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "fakebook.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.Dedup != "titles" {
		t.Errorf("Expected default dedup titles, got %s", cfg.Search.Dedup)
	}
	if cfg.Server.Port == 0 {
		t.Error("Expected a default port")
	}
	if cfg.Database == "" {
		t.Error("Expected a default database path")
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		mgr, err := NewManager(writeConfig(t, sampleConfig))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Database != "/tmp/fake.db" {
			t.Errorf("Expected /tmp/fake.db, got %s", cfg.Database)
		}
		if len(cfg.Sources) != 2 || cfg.Sources[1].Code != "Fak" || cfg.Sources[1].Priority != 2 {
			t.Errorf("Unexpected sources: %+v", cfg.Sources)
		}
		if len(cfg.Canonicals) != 1 || cfg.Canonicals[0].File != "realbook1.pdf" {
			t.Errorf("Unexpected canonicals: %+v", cfg.Canonicals)
		}
		if cfg.Search.Dedup != "canonicals" || cfg.Search.Limit != 25 {
			t.Errorf("Unexpected search config: %+v", cfg.Search)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FAKEBOOK_SERVER_PORT", "9999")
		t.Setenv("FAKEBOOK_DATABASE", "/env/fake.db")

		mgr, err := NewManager(writeConfig(t, sampleConfig))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Server.Port != 9999 {
			t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Database != "/env/fake.db" {
			t.Errorf("Expected /env/fake.db, got %s", cfg.Database)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("Expected error for missing config file")
		}
	})

	t.Run("duplicate source is rejected", func(t *testing.T) {
		content := `
sources:
  - {code: Skr, name: Skrivarna, priority: 1}
  - {code: Skr, name: Other, priority: 2}
`
		_, err := NewManager(writeConfig(t, content))
		if !errors.Is(err, priority.ErrDuplicateSource) {
			t.Errorf("Expected ErrDuplicateSource, got %v", err)
		}
	})
}

func TestPriorityTable(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	table, err := mgr.Get().PriorityTable()
	if err != nil {
		t.Fatalf("PriorityTable failed: %v", err)
	}
	if p, ok := table.SourcePriority("Fak"); !ok || p != 2 {
		t.Errorf("Expected (2, true), got (%d, %v)", p, ok)
	}
	if p, ok := table.CanonicalPriority("Real Book Vol 1"); !ok || p != 1 {
		t.Errorf("Expected (1, true), got (%d, %v)", p, ok)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("FAKEBOOK_TEST_HOME", "/home/music")

	if result := ResolveEnvVars("${FAKEBOOK_TEST_HOME}/fake.db"); result != "/home/music/fake.db" {
		t.Errorf("Expected /home/music/fake.db, got %s", result)
	}
	if result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}"); result != "" {
		t.Errorf("Expected empty string, got %s", result)
	}
	if result := ResolveEnvVars("literal.db"); result != "literal.db" {
		t.Errorf("Expected literal.db, got %s", result)
	}
}

func TestConfigPaths(t *testing.T) {
	t.Setenv("FAKEBOOK_TEST_HOME", "/home/music")

	cfg := &Config{Database: "${FAKEBOOK_TEST_HOME}/fake.db", MusicDir: "${FAKEBOOK_TEST_HOME}/books"}
	if cfg.DatabasePath() != "/home/music/fake.db" {
		t.Errorf("Expected /home/music/fake.db, got %s", cfg.DatabasePath())
	}
	if cfg.MusicPath() != "/home/music/books" {
		t.Errorf("Expected /home/music/books, got %s", cfg.MusicPath())
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakebook.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written default: %v", err)
	}

	cfg := mgr.Get()
	defaults := DefaultConfig()
	if cfg.Database != defaults.Database || cfg.Server.Port != defaults.Server.Port {
		t.Errorf("Expected defaults round trip, got %+v", cfg)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 2 {
		t.Errorf("Expected 2 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, sampleConfig)

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastPort atomic.Int32

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastPort.Store(int32(cfg.Server.Port))
	})

	mgr.WatchConfig(nil)

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("server:\n  port: 9100\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if lastPort.Load() == 9100 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if lastPort.Load() != 9100 {
		t.Errorf("Expected reloaded port 9100, got %d", lastPort.Load())
	}
	if mgr.Get().Server.Port != 9100 {
		t.Errorf("Expected Get to return reloaded config, got port %d", mgr.Get().Server.Port)
	}
}
