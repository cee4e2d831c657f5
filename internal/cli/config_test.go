package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		ServerURL: "http://myhost:9090",
		APIKey:    "eb_testapikey123",
		UserID:    42,
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "eb", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "eb")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("user_id: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetServerURLFromEnv(t *testing.T) {
	t.Setenv("EB_SERVER_URL", "http://custom:1234")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != "http://custom:1234" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234")
	}
}

func TestGetServerURLDefault(t *testing.T) {
	t.Setenv("EB_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != "http://localhost:8080" {
		t.Errorf("url = %q, want %q", url, "http://localhost:8080")
	}
}

func TestGetAPIKeyFromEnv(t *testing.T) {
	t.Setenv("EB_API_KEY", "eb_envkey")
	t.Setenv("HOME", t.TempDir())

	key := getAPIKey()
	if key != "eb_envkey" {
		t.Errorf("key = %q, want %q", key, "eb_envkey")
	}
}

func TestGetAPIKeyFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EB_API_KEY", "")

	if err := saveConfig(CLIConfig{APIKey: "eb_configkey"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	key := getAPIKey()
	if key != "eb_configkey" {
		t.Errorf("key = %q, want %q", key, "eb_configkey")
	}
}

func TestGetAPIKeyEmpty(t *testing.T) {
	t.Setenv("EB_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	key := getAPIKey()
	if key != "" {
		t.Errorf("key = %q, want empty", key)
	}
}

func TestGetUserID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{UserID: 7}); err != nil {
		t.Fatalf("save: %v", err)
	}
	defer func() { flagUser = 0 }()

	tests := []struct {
		name    string
		flag    int64
		env     string
		want    int64
		wantErr bool
	}{
		{"config", 0, "", 7, false},
		{"env overrides config", 0, "12", 12, false},
		{"flag overrides env", 99, "12", 99, false},
		{"invalid env", 0, "twelve", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagUser = tt.flag
			t.Setenv("EB_USER_ID", tt.env)

			got, err := getUserID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("getUserID err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("getUserID = %d, want %d", got, tt.want)
			}
		})
	}
}
