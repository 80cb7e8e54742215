package cmd

import (
	"fmt"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/KaramelBytes/plmview-cli/internal/utils"
	"github.com/spf13/cobra"
)

var sampleOutputPath string

// sampleRows mirrors a PLM export: two banner rows, the header, then data.
var sampleRows = [][]string{
	{"PLM export"},
	{},
	plm.Columns,
	{"VOC-1001 camera freezes", "Preview stops after resume", "Fixed in /Data Protocol/ patch", "482113", "Checked against /data protocol/ logs"},
	{"VOC-1002 battery drain", "Idle drain over 5%/h", "", "", "Needs /Data Protocol/ review"},
	{"MR-2001 Wi-Fi drops", "Reconnect loop on 5GHz", "/data protocol/ update", "", ""},
	{"MR-2002 VOC report on audio", "Crackle at max volume", "/DATA PROTOCOL/", "482150", ""},
	{"UI-3001 typo in settings", "Wrong label", "Fixed by UI team", "482200", ""},
	{"Ops-3002 crash log", "Tombstone on boot", "", "", "see /data protocol/"},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a demo PLM workbook with the expected layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := analysis.BuildXLSX(analysis.Sheet{Name: plm.SheetName, Rows: sampleRows})
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(sampleOutputPath, b); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote sample workbook: %s\n", sampleOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringVarP(&sampleOutputPath, "output", "o", "plm_sample.xlsx", "output path")
}
