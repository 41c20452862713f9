package main

import (
	"fmt"

	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/output"
	"github.com/Martingim-10/retirex/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type projectOptions struct {
	currentAge    int
	retirementAge int
	contribution  float64
	currency      string
	gender        string
	method        string
	outputFormat  string
}

func projectCmd(global *globalOptions) *cobra.Command {
	opts := &projectOptions{}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Compute a single projection and print it",
		Long: `Compute the official and realistic capital for one contribution plan
using the projection policy from the configuration file.`,
		Example: "  retirex project --current-age 30 --retirement-age 65 --contribution 40000 --currency usd -o json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidateOutputFormat(opts.outputFormat); err != nil {
				return err
			}

			conf, logger, err := loadRuntime(global)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			policy := conf.Projection.Policy()
			if opts.method != "" {
				policy.Method = projection.Method(opts.method)
			}
			engine, err := projection.NewEngine(policy)
			if err != nil {
				return err
			}

			result, err := engine.Project(projection.Request{
				CurrentAge:          opts.currentAge,
				RetirementAge:       opts.retirementAge,
				MonthlyContribution: opts.contribution,
				Currency:            opts.currency,
				Gender:              opts.gender,
			})
			if err != nil {
				if projection.IsValidation(err) {
					return fmt.Errorf("invalid request: %w", err)
				}
				logger.Error("failed to compute projection",
					zap.String("op", "main.project"),
					zap.Error(err),
				)
				return err
			}

			return output.Write(cmd.OutOrStdout(), opts.outputFormat, result)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.currentAge, "current-age", 0, "current age in whole years")
	flags.IntVar(&opts.retirementAge, "retirement-age", 0, "retirement age in whole years")
	flags.Float64Var(&opts.contribution, "contribution", 0, "monthly contribution in local currency")
	flags.StringVar(&opts.currency, "currency", "", "local (default) or usd")
	flags.StringVar(&opts.gender, "gender", "", "echoed in the result, does not affect the projection")
	flags.StringVar(&opts.method, "method", "", "override the configured method: actuarial or annuity")
	flags.StringVarP(&opts.outputFormat, "output", "o", constants.OutputFormatPretty, "output format: pretty, csv, json, yaml")
	_ = cmd.MarkFlagRequired("current-age")
	_ = cmd.MarkFlagRequired("retirement-age")
	_ = cmd.MarkFlagRequired("contribution")

	return cmd
}
