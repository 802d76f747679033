package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trickplay/internal/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert legacy BIF indexes into tile sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			converter, store, err := ctx.buildConverter(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := converter.RunConversion(cmd.Context(), convert.ConvertOptions{Force: force})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, converter.ConvertLog().Render())
			fmt.Fprintf(out, "Converted %d of %d attempted candidates\n", summary.Completed, summary.Attempted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-convert candidates that already have tile sheets")
	return cmd
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var deleteNonEmpty bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete legacy BIF indexes whose tile replacements exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			converter, store, err := ctx.buildConverter(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := converter.RunCleanup(cmd.Context(), convert.CleanOptions{
				Force:          force,
				DeleteNonEmpty: deleteNonEmpty,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, converter.CleanLog().Render())
			fmt.Fprintf(out, "Deleted %d of %d attempted candidates\n", summary.Completed, summary.Attempted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete without replacement proof or safety checks")
	cmd.Flags().BoolVar(&deleteNonEmpty, "delete-non-empty", false, "Remove legacy folders even when they hold unexpected files")
	return cmd
}
