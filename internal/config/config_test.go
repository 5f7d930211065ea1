package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/YelzhanWeb/menuapp/internal/config"
)

func writeConfig(c *qt.C, body string) string {
	path := filepath.Join(c.TempDir(), "config.yaml")
	c.Assert(os.WriteFile(path, []byte(body), 0o600), qt.IsNil)
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, `
database:
  host: db.internal
  database: floor
realtime:
  notifier: inproc
`)

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Database.Host, qt.Equals, "db.internal")
	c.Check(cfg.Database.Port, qt.Equals, 5432)
	c.Check(cfg.Database.Database, qt.Equals, "floor")
	c.Check(cfg.Realtime.Notifier, qt.Equals, config.NotifierInproc)
	c.Check(cfg.Realtime.DebounceWindow, qt.Equals, 500*time.Millisecond)
	c.Check(cfg.Realtime.DisconnectGrace, qt.Equals, 5*time.Second)
	c.Check(cfg.HTTP.Port, qt.Equals, 3000)
}

func TestLoadParsesDurations(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, `
realtime:
  debounce_window: 250ms
  probe_interval: 1m
`)

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Realtime.DebounceWindow, qt.Equals, 250*time.Millisecond)
	c.Check(cfg.Realtime.ProbeInterval, qt.Equals, time.Minute)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, `
database:
  host: from-file
http:
  port: 8080
`)
	c.Setenv("MENU_DB_HOST", "from-env")
	c.Setenv("MENU_HTTP_PORT", "9090")
	c.Setenv("MENU_DEBOUNCE_WINDOW", "1s")

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Database.Host, qt.Equals, "from-env")
	c.Check(cfg.HTTP.Port, qt.Equals, 9090)
	c.Check(cfg.Realtime.DebounceWindow, qt.Equals, time.Second)
}

func TestLoadRejectsUnknownNotifier(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, `
realtime:
  notifier: carrier-pigeon
`)

	_, err := config.Load(path)
	c.Assert(err, qt.ErrorMatches, `invalid config: realtime.notifier must be .*`)
}

func TestLoadMissingFile(t *testing.T) {
	c := qt.New(t)
	_, err := config.Load(filepath.Join(c.TempDir(), "nope.yaml"))
	c.Assert(err, qt.ErrorMatches, `failed to read config file: .*`)
}

func TestStoreSelection(t *testing.T) {
	c := qt.New(t)

	cfg, err := config.Load(writeConfig(c, "realtime:\n  notifier: inproc\n"))
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Store, qt.Equals, config.StorePostgres)

	c.Setenv("MENU_STORE", "memory")
	cfg, err = config.Load(writeConfig(c, "realtime:\n  notifier: inproc\n"))
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Store, qt.Equals, config.StoreMemory)

	c.Setenv("MENU_STORE", "sqlite")
	_, err = config.Load(writeConfig(c, ""))
	c.Assert(err, qt.ErrorMatches, `invalid config: store must be .*`)
}
