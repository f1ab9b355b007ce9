package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Amerone/dabase-tool/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <script.sql>",
		Short: "Check a generated data script before running it",
		Long: `Verify parses the INSERT and TRUNCATE statements of a generated script and
reports statement, INSERT and row counts per table. It fails when a row's
width differs from its column list or an identity insert is left open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			report, verr := verify.AnalyzeScript(string(content))
			if report != nil {
				formatted, err := formatter.FormatReport(report)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
			}
			return verr
		},
	}
}
