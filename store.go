package main

// store.go: where encoded images live, a directory or a postgres table

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"floc/rugs/rugs"
)

var name_match = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// store keeps rugs files by name. data is always a valid rugs file,
// handlers check that before calling put
type store interface {
	put(ctx context.Context, name string, hd rugs.Header, data []byte) error
	get(ctx context.Context, name string) ([]byte, error)
	del(ctx context.Context, name string) error
	list(ctx context.Context) ([]string, error)
	close()
}

func connect(ctx context.Context, cnf Configuration) (store, error) {
	switch cnf.DB.Type {
	case "fs", "":
		return newFsStore(cnf.StoreDir)
	case "postgres":
		cs := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", cnf.DB.Host, cnf.DB.Port, cnf.DB.User, cnf.DB.Pass, cnf.DB.Name)
		return newPgStore(ctx, cs)
	default:
		return nil, ErrInvalidDbType
	}
}

// fsStore keeps every image as dir/NAME.rugs
type fsStore struct {
	dir string
}

func newFsStore(dir string) (*fsStore, error) {
	if dir == "" {
		return nil, ErrNoStoreDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) path(name string) (string, error) {
	if !name_match.MatchString(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name+".rugs"), nil
}

func (s *fsStore) put(ctx context.Context, name string, hd rugs.Header, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	// write next to the target and rename, so readers never see half a file
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), p)
}

func (s *fsStore) get(ctx context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoImage
	}
	return data, err
}

func (s *fsStore) del(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoImage
	}
	return err
}

func (s *fsStore) list(ctx context.Context) ([]string, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range ents {
		name, ok := strings.CutSuffix(e.Name(), ".rugs")
		if e.IsDir() || !ok || !name_match.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

func (s *fsStore) close() {}
