package main

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"floc/rugs/rugs"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cf := filepath.Join(dir, "config.json")

	writeConfig(t, cf, `{"listen": ":8080", "default_level": "high"}`)
	c, err := load_config(cf)
	if err != nil {
		t.Fatalf("load_config: %v", err)
	}
	if c.Listen != ":8080" || c.DefaultLevel != "high" {
		t.Fatalf("values not loaded: %+v", c)
	}
	// defaults fill in the rest
	if c.StoreDir != "store" || c.DB.Type != "fs" || c.MaxBody != 64<<20 || c.MaxPixels != 1<<26 {
		t.Fatalf("defaults not applied: %+v", c)
	}

	tests := map[string]struct {
		body string
		err  error
	}{
		"bad level":  {`{"default_level": "extreme"}`, rugs.ErrUnknownLevel},
		"bad db":     {`{"db": {"type": "mongo"}}`, ErrInvalidDbType},
		"no dir":     {`{"store_dir": ""}`, ErrNoStoreDir},
		"bad json":   {`{"listen": `, nil},
		"wrong type": {`{"max_body": "lots"}`, nil},
	}

	for name, test := range tests {
		writeConfig(t, cf, test.body)
		_, err := load_config(cf)
		if err == nil {
			t.Errorf("%s: expected an error", name)
			continue
		}
		if test.err != nil && !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", name, test.err, err)
		}
	}

	if _, err := load_config(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestCommands(t *testing.T) {
	e := newTestEnv(t)
	c := e.commands()

	b, _ := rugs.NewBuffer(1, 1, []rugs.Color{{R: 9, G: 9, B: 9, A: 255}})
	data, _ := rugs.ToRugs(b)
	e.store.put(context.Background(), "dog", rugs.Header{Width: 1, Height: 1}, data)

	tests := map[string]string{
		"":               "ok",
		"   ":            "ok",
		"bogus":          "unknown command bogus",
		"stats":          "stats: up 0s, encoded 0, decoded 0, stored 0",
		"list":           "list: 1 images [dog]",
		"levels":         "levels: none=0 min=5000 med=2000 high=1000 ultra=250",
		"delete":         "delete: " + DELETE_USAGE,
		"delete ../x":    "delete: ../x is not an image name",
		"delete cat":     "delete: " + ErrNoImage.Error(),
		"reload":         "reload: " + RELOAD_USAGE,
		"reload nothing": "reload: " + RELOAD_USAGE,
	}

	for req, want := range tests {
		if got := c.run(req); !strings.HasPrefix(got, want) {
			t.Errorf("%q: expected %q, got %q", req, want, got)
		}
	}

	if got := c.run("delete dog"); !strings.HasPrefix(got, "delete: deleted dog") {
		t.Fatalf("delete dog: %q", got)
	}
	if got := c.run("list"); !strings.HasPrefix(got, "list: 0 images") {
		t.Fatalf("list after delete: %q", got)
	}
}

func TestReloadConfig(t *testing.T) {
	cf := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, cf, `{"default_level": "none"}`)

	cnf, err := load_config(cf)
	if err != nil {
		t.Fatalf("load_config: %v", err)
	}
	e := newTestEnv(t)
	e.cf = cf
	e.cnf = cnf

	writeConfig(t, cf, `{"default_level": "ultra", "max_body": 4096, "max_pixels": 500, "listen": ":1"}`)
	if got := e.commands().run("reload config"); !strings.HasPrefix(got, "reload: ok") {
		t.Fatalf("reload: %q", got)
	}

	c := e.config()
	if c.DefaultLevel != "ultra" || c.MaxBody != 4096 || c.MaxPixels != 500 {
		t.Fatalf("reload not applied: %+v", c)
	}
	if c.Listen != cnf.Listen {
		t.Fatalf("listen address changed while running: %s", c.Listen)
	}

	// a broken file leaves the running config alone
	writeConfig(t, cf, `{"default_level": "extreme"}`)
	if got := e.commands().run("reload config"); strings.HasPrefix(got, "reload: ok") {
		t.Fatalf("reload of a bad config succeeded")
	}
	if e.config().DefaultLevel != "ultra" {
		t.Fatalf("bad reload changed the config")
	}
}

func TestBackoff(t *testing.T) {
	var d time.Duration
	var got []time.Duration
	for i := 0; i < 10; i++ {
		d = backoff(d)
		got = append(got, d)
	}

	if got[0] != 5*time.Millisecond {
		t.Fatalf("first delay %v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("delay shrank: %v", got)
		}
	}
	if got[len(got)-1] != time.Second {
		t.Fatalf("delay not capped at 1s: %v", got)
	}
}

func TestIpcListenerStop(t *testing.T) {
	dir, err := os.MkdirTemp("", "rugs")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	l, err := newIpcListener(filepath.Join(dir, "s"), newCmdHandler())
	if err != nil {
		t.Fatalf("newIpcListener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		l.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stop did not return")
	}
}

func TestIpcListener(t *testing.T) {
	// unix socket paths are short, t.TempDir() can be too long
	dir, err := os.MkdirTemp("", "rugs")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)
	sf := filepath.Join(dir, "s")

	e := newTestEnv(t)
	l, err := newIpcListener(sf, e.commands())
	if err != nil {
		t.Fatalf("newIpcListener: %v", err)
	}
	defer l.stop()

	conn, err := net.Dial("unix", sf)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	for _, req := range []string{"levels", "stats"} {
		if _, err := conn.Write([]byte(req)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !strings.HasPrefix(string(buf[:n]), req+": ") {
			t.Fatalf("%s: got %q", req, buf[:n])
		}
	}
}
