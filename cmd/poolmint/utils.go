// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/accruelabs/poolmint/eventdb"
	"github.com/accruelabs/poolmint/log"
	"github.com/accruelabs/poolmint/lvldb"
	"github.com/accruelabs/poolmint/metrics"
)

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	log.SetLevel(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))
}

func openMainDB(ctx *cli.Context) *lvldb.LevelDB {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		db, err := lvldb.NewMem()
		if err != nil {
			fatal(err)
		}
		return db
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(err)
	}
	db, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		fatal(err)
	}
	return db
}

func openEventDB(ctx *cli.Context) *eventdb.EventDB {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		db, err := eventdb.NewMem()
		if err != nil {
			fatal(err)
		}
		return db
	}
	db, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		fatal(err)
	}
	return db
}

func startAPIServer(ctx *cli.Context, handler http.HandlerFunc) (*http.Server, string) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	srv := &http.Server{Handler: handler}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/"
}

func startMetricsServer(ctx *cli.Context) *http.Server {
	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen metrics addr [%v]: %v", addr, err))
	}
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: router}
	go func() {
		srv.Serve(listener)
	}()
	return srv
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
