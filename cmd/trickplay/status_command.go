package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"trickplay/internal/preflight"
	"trickplay/internal/tilestore"
)

type statusReport struct {
	LibraryDir string            `json:"library_dir"`
	DataDir    string            `json:"data_dir"`
	APIBind    string            `json:"api_bind"`
	Preflight  []preflightStatus `json:"preflight"`
	Store      tilestore.Stats   `json:"store"`
}

type preflightStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show directory readiness and manifest store counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := tilestore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.StatsSummary(cmd.Context())
			if err != nil {
				return err
			}

			report := statusReport{
				LibraryDir: cfg.Paths.LibraryDir,
				DataDir:    cfg.Paths.DataDir,
				APIBind:    cfg.Paths.APIBind,
				Store:      stats,
			}
			for _, result := range preflight.RunAll(cfg) {
				report.Preflight = append(report.Preflight, preflightStatus{
					Name:   result.Name,
					Passed: result.Passed,
					Detail: result.Detail,
				})
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			renderStatusReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderStatusReport(out io.Writer, report statusReport) {
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderTable(
		[]string{"Setting", "Value"},
		[][]string{
			{"Library directory", report.LibraryDir},
			{"Data directory", report.DataDir},
			{"API bind", report.APIBind},
		},
	))

	fmt.Fprintln(out, "Preflight:")
	for _, check := range report.Preflight {
		fmt.Fprintln(out, renderCheckLine(check, colorize))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Count"},
		[][]string{
			{"Items with tile sheets", strconv.Itoa(report.Store.Items)},
			{"Stored manifests", strconv.Itoa(report.Store.Manifests)},
		},
	))
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func renderCheckLine(check preflightStatus, colorize bool) string {
	label := "ERROR"
	color := ansiRed
	if check.Passed {
		label = "OK"
		color = ansiGreen
	}
	line := fmt.Sprintf("  %-20s [%s] %s", check.Name+":", label, check.Detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
