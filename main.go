/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwave/cmd"
	"github.com/humaidq/labwave/logging"
)

func main() {
	app := &cli.Command{
		Name:  "labwave",
		Usage: "Labwave - personal health record ingestion",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdIngest,
			cmd.CmdMetrics,
			cmd.CmdProfile,
			cmd.CmdReclassify,
			cmd.CmdAdd,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Fatal("Command failed", "error", err)
	}
}
