package cmd

import (
	"bytes"
	"fmt"
	"io"

	cfgpkg "github.com/KaramelBytes/plmview-cli/internal/config"
	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/KaramelBytes/plmview-cli/internal/report"
	"github.com/KaramelBytes/plmview-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	anaFormat     string
	anaOutputPath string
	anaRows       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.xlsx>",
	Short: "Load a PLM export and print statistics and category counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format := cfg.OutputFormat
		if cmd.Flags().Changed("format") {
			format = anaFormat
		}
		if !cfgpkg.ValidFormat(format) {
			return fmt.Errorf("unsupported --format: %s (use terminal, markdown, json or html)", format)
		}
		opt := report.Options{TableRows: cfg.TableRows}
		if cmd.Flags().Changed("rows") {
			if anaRows < 0 {
				return fmt.Errorf("--rows must be >= 0, got %d", anaRows)
			}
			opt.TableRows = anaRows
		}

		res, err := plm.ProcessFile(path)
		if err != nil {
			return err
		}
		logger.Debug("file processed",
			zap.String("file", path),
			zap.String("result_id", res.ID),
			zap.Int("rows", res.Summary.Total),
			zap.Int("overlap", res.Summary.Overlap))

		var buf bytes.Buffer
		out := cmd.OutOrStdout()
		if anaOutputPath != "" {
			out = &buf
		}
		if err := newPresenter(format, out, opt, anaOutputPath != "").Present(res); err != nil {
			return err
		}
		if anaOutputPath == "" {
			return nil
		}
		if err := utils.SafeWriteFile(anaOutputPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report: %s\n", format, anaOutputPath)
		return nil
	},
}

// newPresenter picks the presenter for format; toFile disables terminal styling.
func newPresenter(format string, w io.Writer, opt report.Options, toFile bool) report.Presenter {
	switch format {
	case cfgpkg.FormatMarkdown:
		return report.MarkdownPresenter{W: w, Opt: opt}
	case cfgpkg.FormatJSON:
		return report.JSONPresenter{W: w}
	case cfgpkg.FormatHTML:
		return report.HTMLPresenter{W: w, Opt: opt}
	default:
		p := report.TerminalPresenter{W: w, Opt: opt}
		if toFile {
			p.Style = "notty"
		}
		return p
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaFormat, "format", cfgpkg.FormatTerminal, "output format: terminal|markdown|json|html (default from config)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().IntVar(&anaRows, "rows", 0, "max data rows to show; 0 shows all (default from config)")
}
