package main

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type (

	// Internal types, don't need to be exported (yet?)

	// env holds everything the handlers need
	env struct {
		cf    string // config file path, for reloads
		mu    sync.RWMutex
		cnf   Configuration
		store store

		started time.Time
		encoded atomic.Int64
		decoded atomic.Int64
		stored  atomic.Int64
	}

	// Unix ipc listener
	ipcListener struct {
		listener net.Listener
		quit     chan interface{}
		wg       sync.WaitGroup

		mu    sync.Mutex
		conns map[int]net.Conn
	}

	// ipc commands, keyed by the first word of the request
	cmdHandlerFunc func([]string) string
	cmdHandler     map[string]cmdHandlerFunc

	// Wrap responsewriter in order to log http requests and reponses
	rwWrapper struct {
		http.ResponseWriter
		status int
		done   bool
	}

	// Json config format
	Configuration struct {
		Listen       string `json:"listen"`
		Socket       string `json:"socket"`
		StoreDir     string `json:"store_dir"`
		MaxBody      int64  `json:"max_body"`      // max request body in bytes
		MaxPixels    int64  `json:"max_pixels"`    // max width*height of any image decoded
		DefaultLevel string `json:"default_level"` // used when ?level= is missing

		DB struct {
			Type string `json:"type"` // fs or postgres
			Host string `json:"host"`
			Port int    `json:"port"`
			User string `json:"user"`
			Pass string `json:"pass"`
			Name string `json:"name"`
		} `json:"db"`
	}

	// levelInfo is returned by /levels
	levelInfo struct {
		Name   string `json:"name"`
		Budget int    `json:"budget"`
	}
)
