package main

import (
	"context"
	"errors"

	"floc/rugs/rugs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	SQL_IMAGES_CREATE string = "CREATE TABLE IF NOT EXISTS images (name text PRIMARY KEY, width bigint NOT NULL, height bigint NOT NULL, data bytea NOT NULL, uploaded timestamptz NOT NULL DEFAULT now())"
	SQL_IMAGE_PUT     string = "INSERT INTO images (name, width, height, data) VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO UPDATE SET width = EXCLUDED.width, height = EXCLUDED.height, data = EXCLUDED.data, uploaded = now()"
	SQL_IMAGE_GET     string = "SELECT data FROM images WHERE name = $1"
	SQL_IMAGE_DELETE  string = "DELETE FROM images WHERE name = $1"
	SQL_IMAGE_LIST    string = "SELECT name FROM images ORDER BY name"
)

// pgStore keeps images in the images table
type pgStore struct {
	pool *pgxpool.Pool
}

func newPgStore(ctx context.Context, cs string) (*pgStore, error) {
	pool, err := pgxpool.New(ctx, cs)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil { // Ping the database to ensure it is reachable
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, SQL_IMAGES_CREATE); err != nil {
		pool.Close()
		return nil, err
	}

	return &pgStore{pool: pool}, nil
}

func (s *pgStore) put(ctx context.Context, name string, hd rugs.Header, data []byte) error {
	if !name_match.MatchString(name) {
		return ErrInvalidName
	}

	_, err := s.pool.Exec(ctx, SQL_IMAGE_PUT, name, int64(hd.Width), int64(hd.Height), data)
	return err
}

func (s *pgStore) get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, SQL_IMAGE_GET, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoImage
	}
	return data, err
}

func (s *pgStore) del(ctx context.Context, name string) error {
	ct, err := s.pool.Exec(ctx, SQL_IMAGE_DELETE, name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoImage
	}
	return nil
}

func (s *pgStore) list(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, SQL_IMAGE_LIST)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *pgStore) close() {
	s.pool.Close()
}
