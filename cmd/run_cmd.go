package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go.nownabe.dev/tabload"
)

var runCmd = &cobra.Command{
	Use:   "run [job...]",
	Short: "Validates the configured jobs and loads their valid records into the destination",
	RunE:  withSignalWatcher(run),
}

func run(ctx context.Context, _ *cobra.Command, args []string) error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDestination(); err != nil {
		return err
	}

	jobCfgs, err := cfg.SelectJobs(args)
	if err != nil {
		return err
	}

	var rejections io.Writer
	if cfg.RejectionsFile != "" {
		f, err := os.OpenFile(cfg.RejectionsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening rejections file: %w", err)
		}
		defer f.Close()
		rejections = f
	}

	logger := newLogger(cfg)
	ctx = logger.WithContext(ctx)

	dst, err := newDestination(ctx, cfg.Destination)
	if err != nil {
		return fmt.Errorf("connecting to destination: %w", err)
	}
	defer dst.close()

	for _, jc := range jobCfgs {
		j, err := buildJob(ctx, cfg, jc, dst)
		if err != nil {
			return err
		}

		sp, _ := pterm.DefaultSpinner.WithText(fmt.Sprintf("running %s...", j.name)).Start()

		// one loader per job so that jobs sharing a source do not trigger each other
		loader, err := tabload.New(loaderOptions(cfg, rejections)...)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}
		if err := loader.AddHandler(ctx, j.handler); err != nil {
			sp.Fail(err.Error())
			return err
		}
		if err := loader.Handle(ctx, j.event); err != nil {
			sp.Fail(fmt.Sprintf("%s failed: %v", j.name, err))
			return err
		}

		sp.Success(fmt.Sprintf("%s loaded into %s", j.name, j.handler.Destination.Table))
	}

	return nil
}
