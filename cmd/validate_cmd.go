package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go.nownabe.dev/tabload"
)

var validateCmd = &cobra.Command{
	Use:   "validate [job...]",
	Short: "Validates the configured jobs without loading anything",
	RunE:  withSignalWatcher(validate),
}

type jobValidation struct {
	name       string
	validated  int
	rejections []tabload.Rejection
}

func validate(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	jobCfgs, err := cfg.SelectJobs(args)
	if err != nil {
		return err
	}

	maxRejections, err := cmd.Flags().GetInt("max-rejections")
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx = logger.WithContext(ctx)

	results := make([]jobValidation, 0, len(jobCfgs))
	for _, jc := range jobCfgs {
		j, err := buildJob(ctx, cfg, jc, nil)
		if err != nil {
			return err
		}

		validated, rejections, err := j.handler.Validate(ctx, j.event)
		if err != nil {
			return fmt.Errorf("validating %s: %w", j.name, err)
		}
		results = append(results, jobValidation{name: j.name, validated: len(validated), rejections: rejections})
	}

	return printValidations(results, maxRejections)
}

func printValidations(results []jobValidation, maxRejections int) error {
	summary := pterm.TableData{{"job", "read", "valid", "rejected"}}
	details := pterm.TableData{{"job", "row", "field", "reason"}}

	for _, r := range results {
		summary = append(summary, []string{
			r.name,
			strconv.Itoa(r.validated + len(r.rejections)),
			strconv.Itoa(r.validated),
			strconv.Itoa(len(r.rejections)),
		})
		for i, rej := range r.rejections {
			if i == maxRejections {
				details = append(details, []string{r.name, "...", "", fmt.Sprintf("%d more", len(r.rejections)-i)})
				break
			}
			details = append(details, []string{r.name, strconv.Itoa(rej.Row), rej.Field, rej.Reason})
		}
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(summary).Render(); err != nil {
		return err
	}
	if len(details) > 1 {
		pterm.Println()
		return pterm.DefaultTable.WithHasHeader().WithData(details).Render()
	}
	return nil
}
