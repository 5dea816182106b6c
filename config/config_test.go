package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConf(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "media_player.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := fromValues(values{}, "")

	if cfg.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Player != PlayerMPV || cfg.CDDevice != "/dev/cdrom" || cfg.DefaultVolume != 95 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PollInterval != 200*time.Millisecond || cfg.SettleDelay != time.Second {
		t.Errorf("poll = %v, settle = %v", cfg.PollInterval, cfg.SettleDelay)
	}
	if cfg.RedisHost != "" || cfg.DBHost != "" || cfg.MinioEndpoint != "" {
		t.Errorf("optional backends enabled by default")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConf(t, dir, "# jukebox\nNAME=Living Room\nWEB_PORT=8080\nPLAYER=mpd\nPOLL_INTERVAL_MS=abc\nSETTLE_DELAY_MS=0\n")
	t.Setenv("WEB_PORT", "9090")

	cfg := Load(path)
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Name != "Living Room" || cfg.Player != PlayerMPD {
		t.Errorf("name = %q, player = %q", cfg.Name, cfg.Player)
	}
	if cfg.WebPort != 9090 {
		t.Errorf("WebPort = %d, environment should win", cfg.WebPort)
	}
	if cfg.PollInterval != 200*time.Millisecond || cfg.SettleDelay != time.Second {
		t.Errorf("bad durations not defaulted: %v %v", cfg.PollInterval, cfg.SettleDelay)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.conf"))
	if cfg.Path != "" {
		t.Errorf("Path = %q for a missing file", cfg.Path)
	}
	if cfg.Name != "RaspCD" {
		t.Errorf("Name = %q", cfg.Name)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConf(t, dir, "NAME=Before\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changed <- c })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeConf(t, dir, "NAME=After\n")

	select {
	case cfg := <-changed:
		if cfg.Name != "After" {
			t.Errorf("reloaded name = %q", cfg.Name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after the file changed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatchWithoutFile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := Watch(ctx, "", func(*Config) { t.Error("unexpected reload") }); err != nil {
		t.Errorf("Watch = %v", err)
	}
}
