package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/repositories"
	"github.com/kmcph/cratedig/internal/shared"
	itesting "github.com/kmcph/cratedig/internal/testing"
	"golang.org/x/oauth2"
)

func TestStateCommands(t *testing.T) {
	t.Run("Show Plain", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetArtist("queen", repositories.ArtistSelection{ID: "ar1", Name: "Queen"})

		if err := fixture.run(t, "state", "show"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := fixture.output.String()
		if !strings.Contains(out, `"queen" → Queen (ID: ar1)`) {
			t.Errorf("expected remembered selection, got:\n%s", out)
		}
		if !strings.Contains(out, "Tokens: none") {
			t.Errorf("expected token status, got:\n%s", out)
		}
	})

	t.Run("Show JSON Redacts Token Material", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetToken(&oauth2.Token{
			AccessToken:  "secret_access",
			RefreshToken: "secret_refresh",
			Expiry:       time.Now().Add(time.Hour),
		})

		if err := fixture.run(t, "state", "show", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := fixture.output.String()
		if strings.Contains(out, "secret_access") || strings.Contains(out, "secret_refresh") {
			t.Errorf("expected tokens redacted, got:\n%s", out)
		}

		var payload struct {
			TokensPresent bool `json:"tokens_present"`
			TokenUsable   bool `json:"token_usable"`
		}
		if err := json.Unmarshal(fixture.output.Bytes(), &payload); err != nil {
			t.Fatalf("expected valid JSON, got %v:\n%s", err, out)
		}
		if !payload.TokensPresent || !payload.TokenUsable {
			t.Errorf("expected token flags set, got %+v", payload)
		}
	})

	t.Run("Clear Defaults To Everything", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetArtist("queen", repositories.ArtistSelection{ID: "ar1"})
		fixture.state.SetToken(&oauth2.Token{AccessToken: "acc", RefreshToken: "ref", Expiry: time.Now().Add(time.Hour)})

		if err := fixture.run(t, "state", "clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(fixture.state.Record().ArtistChoices) != 0 {
			t.Error("expected artist choices cleared")
		}
		if fixture.state.Token() != nil {
			t.Error("expected tokens cleared")
		}
	})

	t.Run("Clear Artists Only", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetArtist("queen", repositories.ArtistSelection{ID: "ar1"})
		fixture.state.SetToken(&oauth2.Token{AccessToken: "acc", Expiry: time.Now().Add(time.Hour)})

		if err := fixture.run(t, "state", "clear", "--artists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(fixture.state.Record().ArtistChoices) != 0 {
			t.Error("expected artist choices cleared")
		}
		if fixture.state.Token() == nil {
			t.Error("expected tokens kept")
		}
	})
}

func TestCacheCommands(t *testing.T) {
	fixture := newRunnerFixture(t, &itesting.MockService{})
	fixture.runner.cache.Put(models.Track{ID: "t1", Name: "Track"})

	if err := fixture.run(t, "cache", "stats"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(fixture.output.String(), "Cached track details: 1") {
		t.Errorf("expected cache count, got:\n%s", fixture.output.String())
	}

	fixture.output.Reset()
	if err := fixture.run(t, "cache", "clear"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count, _ := fixture.runner.cache.Count(); count != 0 {
		t.Errorf("expected empty cache, got %d", count)
	}
}

func TestAuthStatus(t *testing.T) {
	t.Run("No Tokens", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})

		if err := fixture.run(t, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(fixture.output.String(), "No stored tokens") {
			t.Errorf("expected missing-token message, got:\n%s", fixture.output.String())
		}
	})

	t.Run("Usable Token", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetToken(&oauth2.Token{
			AccessToken:  "acc",
			RefreshToken: "ref",
			Expiry:       time.Now().Add(time.Hour),
		})

		if err := fixture.run(t, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := fixture.output.String()
		if !strings.Contains(out, "Access token valid until") {
			t.Errorf("expected validity report, got:\n%s", out)
		}
		if !strings.Contains(out, "Refresh token stored") {
			t.Errorf("expected refresh report, got:\n%s", out)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.state.SetToken(&oauth2.Token{AccessToken: "acc", Expiry: time.Now().Add(-time.Hour)})

		if err := fixture.run(t, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := fixture.output.String()
		if !strings.Contains(out, "Access token expired") {
			t.Errorf("expected expiry report, got:\n%s", out)
		}
		if !strings.Contains(out, "No refresh token stored") {
			t.Errorf("expected missing refresh report, got:\n%s", out)
		}
	})
}

func TestConfigInit(t *testing.T) {
	fixture := newRunnerFixture(t, &itesting.MockService{})
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := fixture.run(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		t.Fatalf("expected created config to parse, got %v", err)
	}
	if config.Server.Port != 8888 {
		t.Errorf("expected default port, got %d", config.Server.Port)
	}

	// A second init must not clobber the file.
	if err := fixture.run(t, "config", "init", "--config", path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestResolveConfig(t *testing.T) {
	t.Run("Config File Drives State Location", func(t *testing.T) {
		dir := t.TempDir()
		statePath := filepath.Join(dir, "custom-state.json")
		configPath := filepath.Join(dir, "config.toml")

		content := fmt.Sprintf("[storage]\nstate_path = %q\ncache_path = %q\n",
			statePath, filepath.Join(dir, "cache.db"))
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		// No injected state store: the command must open the configured one.
		fixture := newRunnerFixture(t, &itesting.MockService{})
		fixture.runner.state = nil

		if err := fixture.run(t, "auth", "status", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fixture.runner.state == nil || fixture.runner.state.Path() != statePath {
			t.Errorf("expected state store at %s, got %+v", statePath, fixture.runner.state)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	fixture := newRunnerFixture(t, &itesting.MockService{})

	if err := fixture.runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := fixture.output.String(); got != "{\"n\":1}\n" {
		t.Errorf("unexpected compact output: %q", got)
	}

	fixture.output.Reset()
	if err := fixture.runner.writeJSON(map[string]int{"n": 1}, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(fixture.output.String(), "\n  \"n\": 1\n") {
		t.Errorf("expected indented output, got %q", fixture.output.String())
	}

	fixture.runner.output = &itesting.FWriter{}
	if err := fixture.runner.writeJSON(map[string]int{"n": 1}, false); err == nil {
		t.Error("expected error from failing writer")
	}

	// A writer that takes the payload but fails on the trailing newline.
	var buf bytes.Buffer
	limited := itesting.NewLimitedWriter(1, 0, &buf)
	fixture.runner.output = &limited
	if err := fixture.runner.writeJSON(map[string]int{"n": 1}, false); err == nil {
		t.Error("expected error when the trailing newline cannot be written")
	}
}

func TestOpenCacheDegradesGracefully(t *testing.T) {
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(io.Discard),
		Output: io.Discard,
	})

	config := shared.DefaultConfig()
	config.Storage.CachePath = filepath.Join(t.TempDir(), "not-a-dir", "cache.db")

	// Parent creation succeeds here, so the cache opens.
	if cache := runner.openCache(config); cache == nil {
		t.Error("expected cache to open with creatable parent directory")
	} else {
		cache.Close()
	}

	blocked := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(io.Discard),
		Output: io.Discard,
	})

	// A file where the parent directory should be forces the degraded path.
	obstruction := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(obstruction, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write obstruction: %v", err)
	}
	config.Storage.CachePath = filepath.Join(obstruction, "cache.db")

	if cache := blocked.openCache(config); cache != nil {
		t.Error("expected nil cache when the directory cannot be created")
	}
}
