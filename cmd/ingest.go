/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwave/pipeline"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Sources: cli.EnvVars("LABWAVE_USER"),
		Usage:   "owner of the records",
	}
}

var CmdIngest = &cli.Command{
	Name:      "ingest",
	Usage:     "Ingest lab reports, wearable exports and genotype files",
	ArgsUsage: "<file>...",
	Flags:     append(storeFlags(), userFlag()),
	Action:    ingest,
}

func ingest(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return errUserRequired
	}

	if cmd.Args().Len() == 0 {
		return errNoFiles
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	inputs, err := readInputs(userID, cmd.Args().Slice(), cfg.Pipeline.MaxUploadBytes)
	if err != nil {
		return err
	}

	p, closeStore, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	items := p.ProcessBatch(ctx, inputs)

	return reportBatch(os.Stdout, items)
}

// readInputs reads each file, stopping one byte past the limit so an
// oversized file is still rejected by the pipeline.
func readInputs(userID string, paths []string, limit int64) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, 0, len(paths))

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		_ = f.Close()

		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		inputs = append(inputs, pipeline.Input{UserID: userID, Filename: filepath.Base(path), Data: data})
	}

	return inputs, nil
}

func reportBatch(w io.Writer, items []pipeline.BatchItem) error {
	failed := 0

	for _, item := range items {
		if item.Err != nil {
			failed++

			fmt.Fprintf(w, "%s: failed: %v\n", item.Filename, item.Err)

			continue
		}

		res := item.Result
		fmt.Fprintf(w, "%s: %s/%s written=%d unchanged=%d superseded=%d discarded=%d variants=%d unresolved=%d diagnostics=%d\n",
			item.Filename, res.Upload.Format, res.Upload.Variant, len(res.Written), res.Unchanged,
			res.Superseded, res.Discarded, len(res.Variants), len(res.Unresolved), len(res.Diagnostics))

		for _, u := range res.Unresolved {
			fmt.Fprintf(w, "  unresolved %q %s %s: %s\n", u.Name, u.Value, u.Unit, u.Reason)
		}

		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  %s: %s\n", d.Kind, d.Message)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errIngestFailed, failed, len(items))
	}

	return nil
}
