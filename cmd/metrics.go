/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwave/models"
)

var CmdMetrics = &cli.Command{
	Name:      "metrics",
	Usage:     "Compute derived metrics from stored measurements",
	ArgsUsage: "[algorithm]",
	Description: "Without an algorithm name every biological-age calculator runs. " +
		"Use --genetics for the genetic risk summary.",
	Flags: append(storeFlags(), userFlag(),
		&cli.BoolFlag{
			Name:  "genetics",
			Usage: "print the genetic risk summary",
		},
	),
	Action: runMetrics,
}

func runMetrics(ctx context.Context, cmd *cli.Command) error {
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

	var out any

	switch {
	case cmd.Bool("genetics"):
		out, err = p.Genetics(ctx, userID)
	case cmd.Args().Len() > 0:
		out, err = p.Metric(ctx, userID, cmd.Args().First())
	default:
		out, err = p.BioAge(ctx, userID)
	}

	if err != nil {
		return err
	}

	return printJSON(os.Stdout, out)
}

var CmdProfile = &cli.Command{
	Name:  "profile",
	Usage: "Set the date of birth and sex used for reference ranges",
	Flags:  profileFlags(),
	Action: setProfile,
}

func profileFlags() []cli.Flag {
	return append(storeFlags(), userFlag(),
		&cli.StringFlag{
			Name:  "dob",
			Usage: "date of birth (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "gender",
			Usage: "male or female",
		},
	)
}

func setProfile(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return errUserRequired
	}

	profile := models.Profile{UserID: userID}

	if raw := cmd.String("dob"); raw != "" {
		dob, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidDOB, raw, err)
		}

		profile.DateOfBirth = &dob
	}

	if raw := cmd.String("gender"); raw != "" {
		g, ok := models.ParseGender(raw)
		if !ok {
			return fmt.Errorf("%w %q", errInvalidGender, raw)
		}

		profile.Gender = &g
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

	if err := p.SetProfile(ctx, profile); err != nil {
		return err
	}

	return printJSON(os.Stdout, profile)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
