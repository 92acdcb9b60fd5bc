package main

import (
	"errors"
)

var (
	ErrInvalidDbType = errors.New("invalid db type in config")
	ErrNoImage       = errors.New("no image exists with this name")
	ErrInvalidName   = errors.New("invalid image name")
	ErrBadThumb      = errors.New("thumb must be between 1 and 4096")
	ErrNoStoreDir    = errors.New("store_dir must be set for the fs store")
	ErrTooManyPixels = errors.New("image has more pixels than max_pixels allows")
	ErrEmptyImage    = errors.New("image has no pixels to convert")
)
