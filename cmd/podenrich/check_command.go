package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podenrich/internal/pipeline"
	"podenrich/internal/preflight"
	"podenrich/internal/stage"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify tools, directories, providers and the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			out := cmd.OutOrStdout()

			p, closeAll, err := pipeline.Build(cmd.Context(), cfg, nil, version, logger)
			if err != nil {
				return err
			}
			defer closeAll()

			results := preflight.RunAll(cmd.Context(), cfg, p.Writer().Sink(), !skipLLM)
			health := p.HealthCheck(cmd.Context())

			rows := make([][]string, 0, len(results)+len(health))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed, r.Optional), r.Detail})
			}
			for _, h := range health {
				rows = append(rows, []string{"Stage " + h.Name, passLabel(h.Ready, false), h.Detail})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Check", "Result", "Detail"}, rows, nil))

			failed := len(preflight.Failed(results)) + len(stage.NotReady(health))
			if failed > 0 {
				return errors.New("one or more checks failed")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Do not send a test request to the generative provider")
	return cmd
}

func passLabel(ok, optional bool) string {
	switch {
	case ok:
		return "ok"
	case optional:
		return "warn"
	default:
		return "FAIL"
	}
}
