package main

// rugsd: http/ipc server for rugs images
// Usage: accepts one argument in the form of a path to a json config file
//        ./rugsd [/path/to/config]
// storage: a directory of .rugs files, or a postgres table
// ipc: thru a unix socket connection and the rugs console command
// api:
//   GET    /levels                       compression levels and budgets
//   POST   /encode?level=                any image -> rugs
//   POST   /decode?thumb=                rugs -> png
//   GET    /images                       stored image names
//   POST   /images?level=                store, named after its contents
//   PUT    /images/NAME?level=           store as NAME
//   GET    /images/NAME.rugs|png?thumb=  fetch
//   DELETE /images/NAME

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"
)

func main() {

	infolog.Printf("starting rugsd")

	// Load config file
	cf := "config.json" // default file to look for
	if len(os.Args) > 1 {
		cf = os.Args[1]
		if len(os.Args) > 2 {
			warnlog.Println("extra arguments were passed; only the first arg specifies config file, rest are ignored")
		}
	}
	cnf, err := load_config(cf)
	if err != nil {
		errorlog.Fatalf("failed to load config file: %v", err)
	}

	// prep graceful exit
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	// connect to storage
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := connect(ctx, cnf)
	cancel()
	if err != nil {
		errorlog.Fatalf("could not open %s store: %v", cnf.DB.Type, err)
	}
	defer st.close()
	infolog.Printf("opened %s store", cnf.DB.Type)

	e := &env{
		cf:      cf,
		cnf:     cnf,
		store:   st,
		started: time.Now(),
	}

	// start unix socket for ipc
	os.RemoveAll(cnf.Socket)
	ipcS, err := newIpcListener(cnf.Socket, e.commands())
	if err != nil {
		errorlog.Fatalf("net.Listen: %v", err)
	}
	infolog.Printf("started unix socket listener on %s", cnf.Socket)

	defer ipcS.stop()

	srv := &http.Server{
		Addr:              cnf.Listen,
		Handler:           e.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start on separate thread
	go func() {
		infolog.Printf("started http server on %s", cnf.Listen)
		err := srv.ListenAndServe()
		if err != http.ErrServerClosed {
			errorlog.Printf("server error: %v", err)
			sigs <- os.Interrupt
		}
	}()

	// wait and do a graceful exit on ctrl-c
	sig := <-sigs
	infolog.Printf("%v: exiting...\n", sig)

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		errorlog.Printf("graceful shutdown failed! %v", err)
	}

	infolog.Println("server shutdown")
}
