/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwave/pipeline"
)

var CmdReclassify = &cli.Command{
	Name:   "reclassify",
	Usage:  "Classify stored measurements again against the current profile",
	Flags:  append(storeFlags(), userFlag()),
	Action: reclassify,
}

func reclassify(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return errUserRequired
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, closeStore, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := p.Reclassify(ctx, userID)
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, res)
}

var CmdAdd = &cli.Command{
	Name:  "add",
	Usage: "Record a value by hand",
	Description: "Manual values rank below lab and wearable values for the same day. " +
		"The unit must be valid for the biomarker.",
	Flags:  addFlags(),
	Action: addManual,
}

func addFlags() []cli.Flag {
	return append(storeFlags(), userFlag(),
		&cli.StringFlag{
			Name:     "code",
			Usage:    "biomarker code, such as GLU",
			Required: true,
		},
		&cli.FloatFlag{
			Name:     "value",
			Usage:    "measured value",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "unit",
			Usage: "unit of the value; the canonical unit when empty",
		},
		&cli.StringFlag{
			Name:  "day",
			Usage: "day of the measurement (YYYY-MM-DD), today when empty",
		},
	)
}

func addManual(ctx context.Context, cmd *cli.Command) error {
	entry := pipeline.ManualEntry{
		UserID: cmd.String("user"),
		Code:   strings.ToUpper(strings.TrimSpace(cmd.String("code"))),
		Value:  cmd.Float("value"),
		Unit:   cmd.String("unit"),
	}

	if entry.UserID == "" {
		return errUserRequired
	}

	if raw := cmd.String("day"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidDay, raw, err)
		}

		entry.Day = day
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, closeStore, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	m, written, err := p.AddManual(ctx, entry)
	if err != nil {
		return err
	}

	if !written {
		fmt.Fprintf(os.Stderr, "a higher-ranked value is already stored for %s on %s\n",
			m.BiomarkerCode, m.Day.Format(time.DateOnly))
	}

	return printJSON(os.Stdout, m)
}
