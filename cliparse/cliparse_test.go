// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "DATABASE_URL", "DATABASE_TYPE", "CALLER_KEY_SALT", "VOTING_DURATION",
	"RESET_CLEARS_CANDIDATES", "DEFAULT_ELECTION", "DEPLOYER_ADDRESS", "ALLOWED_ORIGINS",
}

// clearEnv unsets every config variable for the test and restores them after
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("CALLER_KEY_SALT", "test-salt")
	t.Setenv("VOTING_DURATION", "90m")
	t.Setenv("RESET_CLEARS_CANDIDATES", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.VotingDuration != 90*time.Minute {
		t.Errorf("expected 90m, got %s", cfg.VotingDuration)
	}
	if !cfg.ResetClearsCandidates {
		t.Error("expected ResetClearsCandidates from env")
	}
	want := []string{"http://a.example", "http://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("expected origins %v, got %v", want, cfg.AllowedOrigins)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-env-file", "", "-d", "file:test.db", "-caller-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.VotingDuration != 24*time.Hour {
		t.Errorf("expected default 24h, got %s", cfg.VotingDuration)
	}
	if cfg.ResetClearsCandidates {
		t.Error("expected ResetClearsCandidates off by default")
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Errorf("expected wildcard origin, got %v", cfg.AllowedOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("RESET_CLEARS_CANDIDATES", "true")

	cfg, err := ParseFlags([]string{
		"-env-file", "",
		"-p", "8081",
		"-d", "file:test.db",
		"-caller-salt", "s1",
		"-reset-clears-candidates=false",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8081 {
		t.Errorf("CLI should override env: expected 8081, got %d", cfg.Port)
	}
	if cfg.ResetClearsCandidates {
		t.Error("CLI false should override env true")
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	contents := "DATABASE_URL=file:from-env-file.db\nCALLER_KEY_SALT=file-salt\nPORT=7000\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	// real environment wins over the file
	t.Setenv("PORT", "7001")

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseURL != "file:from-env-file.db" {
		t.Errorf("expected DATABASE_URL from file, got %s", cfg.DatabaseURL)
	}
	if cfg.CallerKeySalt != "file-salt" {
		t.Errorf("expected salt from file, got %s", cfg.CallerKeySalt)
	}
	if cfg.Port != 7001 {
		t.Errorf("expected env PORT to win, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	_, err := ParseFlags([]string{
		"-env-file", filepath.Join(t.TempDir(), "absent.env"),
		"-d", "file:test.db",
		"-caller-salt", "s1",
	})
	if err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing database", []string{"-caller-salt", "s1"}},
		{"missing salt", []string{"-d", "file:test.db"}},
		{"bad database type", []string{"-d", "x", "-caller-salt", "s1", "-t", "mysql"}},
		{"bad duration", []string{"-d", "x", "-caller-salt", "s1", "-voting-duration", "soon"}},
		{"sub-second duration", []string{"-d", "x", "-caller-salt", "s1", "-voting-duration", "500ms"}},
		{"election without deployer", []string{"-d", "x", "-caller-salt", "s1", "-election", "council"}},
		{"unknown flag", []string{"-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			args := append([]string{"-env-file", ""}, tt.args...)
			if _, err := ParseFlags(args); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestParseFlags_DefaultElection(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_ELECTION", "council")
	t.Setenv("DEPLOYER_ADDRESS", "0x00000000000000000000000000000000000000d1")

	cfg, err := ParseFlags([]string{"-env-file", "", "-d", "x", "-caller-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultElection != "council" || cfg.DeployerAddress == "" {
		t.Errorf("expected default election bootstrap config, got %+v", cfg)
	}
}
