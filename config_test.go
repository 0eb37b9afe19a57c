package bitfix

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BITFIX_HOME", home)

	c := &Config{}
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); err != nil {
		t.Fatalf("load failed: %s", err)
	}

	if c.Home() != home {
		t.Fatalf("expected home %s - got %s", home, c.Home())
	}
	if c.PatchDir != filepath.Join(home, "bitfix") {
		t.Fatalf("unexpected patch dir %s", c.PatchDir)
	}
	if c.LogPath() != filepath.Join(home, "bitfix.txt") {
		t.Fatalf("unexpected log path %s", c.LogPath())
	}
	if c.Extension != ".anko" || c.DisasmBits != 64 || c.Listen != "localhost:8666" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BITFIX_HOME", home)

	err := os.WriteFile(filepath.Join(home, configName), []byte("log_level: warn\nlisten: 127.0.0.1:9000\n"), 0666)
	if err != nil {
		t.Fatal(err)
	}

	c := &Config{}
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); err != nil {
		t.Fatalf("load failed: %s", err)
	}

	if c.LogLevel != "warn" || c.Listen != "127.0.0.1:9000" {
		t.Fatalf("file values were not applied: %+v", c)
	}
	if c.Extension != ".anko" {
		t.Fatalf("missing keys should keep defaults - got extension %q", c.Extension)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BITFIX_HOME", home)

	c := &Config{}
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	c.SetDefaults()
	c.PatchDir = "/opt/patches"
	c.DisasmBits = 32
	if err := c.Save(); err != nil {
		t.Fatalf("save failed: %s", err)
	}

	loaded := &Config{}
	if err := loaded.Init(); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Load(); err != nil {
		t.Fatalf("load failed: %s", err)
	}
	if loaded.PatchDir != "/opt/patches" || loaded.DisasmBits != 32 {
		t.Fatalf("expected saved values - got %+v", loaded)
	}
	if loaded.LibraryPath() != filepath.Join(home, "libbitfix.so") {
		t.Fatalf("unexpected library path %s", loaded.LibraryPath())
	}
}

func TestConfigBadFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BITFIX_HOME", home)

	err := os.WriteFile(filepath.Join(home, configName), []byte("disasm_bits: [1, 2\n"), 0666)
	if err != nil {
		t.Fatal(err)
	}

	c := &Config{}
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); err == nil {
		t.Fatalf("expected a parse error")
	}
}
