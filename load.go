package main

import (
	"os"
	"path/filepath"

	"encoding/json"

	"floc/rugs/rugs"
)

// defaults for anything the config file leaves out
func defaultConfig() Configuration {
	c := Configuration{
		Listen:       "127.0.0.1:9000",
		Socket:       filepath.Join(os.TempDir(), "rugsd.sock"),
		StoreDir:     "store",
		MaxBody:      64 << 20,
		MaxPixels:    1 << 26,
		DefaultLevel: "none",
	}
	c.DB.Type = "fs"
	c.DB.Port = 5432
	return c
}

// Load config file
func load_config(cf string) (Configuration, error) {
	cb, err := os.ReadFile(cf)
	if err != nil {
		return Configuration{}, err
	}

	temp := defaultConfig()
	if err := json.Unmarshal(cb, &temp); err != nil {
		return Configuration{}, err
	}

	if _, err := rugs.ParseLevel(temp.DefaultLevel); err != nil {
		return Configuration{}, err
	}
	switch temp.DB.Type {
	case "fs":
		if temp.StoreDir == "" {
			return Configuration{}, ErrNoStoreDir
		}
	case "postgres":
	default:
		return Configuration{}, ErrInvalidDbType
	}
	if temp.MaxBody <= 0 {
		temp.MaxBody = defaultConfig().MaxBody
	}
	if temp.MaxPixels <= 0 {
		temp.MaxPixels = defaultConfig().MaxPixels
	}

	infolog.Printf("load_config: loaded %s", cf)
	return temp, nil
}

// reload re-reads the config file. listen address, socket and storage
// can't change while running, only the rest is applied
func (e *env) reload_config() error {
	infolog.Println("load_config: manual reload requested")

	c, err := load_config(e.cf)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if c.Listen != e.cnf.Listen || c.Socket != e.cnf.Socket || c.StoreDir != e.cnf.StoreDir || c.DB != e.cnf.DB {
		warnlog.Println("load_config: listen/socket/storage changes need a restart; ignored")
	}
	e.cnf.MaxBody = c.MaxBody
	e.cnf.MaxPixels = c.MaxPixels
	e.cnf.DefaultLevel = c.DefaultLevel

	return nil
}

func (e *env) config() Configuration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cnf
}
