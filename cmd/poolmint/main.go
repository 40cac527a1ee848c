// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/accruelabs/poolmint/api"
	"github.com/accruelabs/poolmint/controller"
	"github.com/accruelabs/poolmint/log"
	"github.com/accruelabs/poolmint/metrics"
	"github.com/accruelabs/poolmint/minter"
	"github.com/accruelabs/poolmint/poolmint"
	"github.com/accruelabs/poolmint/state"
	"github.com/accruelabs/poolmint/token"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Poolmint",
		Usage:     "multi-pool reward accrual and claim settlement engine",
		Copyright: "2026 The Poolmint developers",
		Flags: []cli.Flag{
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			metricsAddrFlag,
			enableMetricsFlag,
			feeCollectorFlag,
			feeBpsFlag,
			verbosityFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	mainDB := openMainDB(ctx)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	eventDB := openEventDB(ctx)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	st := state.New(mainDB)
	ctrl := controller.New(st, controller.Config{Events: eventDB})

	ledger := token.New(poolmint.TokenAddress, st)
	chain := minter.Minter(ledger)
	if collector := ctx.String(feeCollectorFlag.Name); collector != "" {
		addr, err := poolmint.ParseAddress(collector)
		if err != nil {
			fatal("invalid fee collector address:", err)
		}
		splitter, err := minter.NewFeeSplitter(chain, addr, uint16(ctx.Uint(feeBpsFlag.Name)))
		if err != nil {
			fatal(err)
		}
		chain = splitter
	}
	if err := ctrl.SetMinter(poolmint.Address{}, chain); err != nil {
		fatal(err)
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		metricsSrv := startMetricsServer(ctx)
		defer func() { logger.Info("stopping metrics server..."); metricsSrv.Shutdown(context.Background()) }()
	}

	handler := api.New(ctrl, eventDB, currentBlock, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
	})
	apiSrv, apiURL := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	printStartupMessage(ctx, apiURL)

	exit := handleExitSignal()
	<-exit.Done()
	return nil
}

// currentBlock derives the engine's block height from wall-clock time.
func currentBlock() uint32 {
	return uint32(uint64(time.Now().Unix()) / poolmint.BlockInterval)
}

func printStartupMessage(ctx *cli.Context, apiURL string) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		dataDir = "Memory"
	}
	fmt.Printf(`Starting %v
    Version     %v
    Data dir    [%v]
    API portal  [%v]
`,
		"Poolmint",
		fullVersion(),
		dataDir,
		apiURL,
	)
}
