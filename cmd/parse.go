package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kreigan/zone-importer/internal/logger"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

var parseCmd = &cobra.Command{
	Use:   "parse [zone-file]",
	Short: "Parse a zone file and show the records found",
	Long: `Parse a BIND-style zone file and print every record with its validity.

Nothing is sent anywhere. Lines that had to be dropped are listed after the
records.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runParse,
}

var parseOnlyValid bool

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseOnlyValid, "valid", false, "Only show valid records")
}

func runParse(cmd *cobra.Command, args []string) error {
	g, err := loadGlobals(cmd)
	if err != nil {
		return err
	}
	if verr := g.cfg.Validate(false); verr != nil {
		return verr
	}

	res, err := zonefile.ParseFile(args[0], zonefile.WithLogger(g.log.Logr()))
	if err != nil {
		return err
	}

	records := res.Records
	if parseOnlyValid {
		records = zonefile.Valid(records)
	}

	printRecords(g.log, res.Apex, records)
	printDropped(g.log, res.Dropped)

	invalid := len(res.Records) - len(zonefile.Valid(res.Records))
	if g.json {
		g.log.InfoWithData("Parse completed", map[string]interface{}{
			"apex":    res.Apex,
			"records": len(res.Records),
			"invalid": invalid,
			"dropped": len(res.Dropped),
		})
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nResults:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Apex:           %s\n", valueOr(res.Apex, "(unknown)"))
	fmt.Fprintf(cmd.OutOrStdout(), "  Records:        %d\n", len(res.Records))
	fmt.Fprintf(cmd.OutOrStdout(), "  Invalid:        %d\n", invalid)
	fmt.Fprintf(cmd.OutOrStdout(), "  Dropped lines:  %d\n", len(res.Dropped))
	return nil
}

func printRecords(log *logger.Logger, apex string, records []zonefile.Record) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		if !rec.IsValid {
			status = rec.Error
		}
		rows = append(rows, []string{rec.Name, rec.TTL.String(), rec.Type, rec.Value, status})
	}
	title := "Records"
	if apex != "" {
		title = fmt.Sprintf("Records of %s", apex)
	}
	log.Table(title, []string{"NAME", "TTL", "TYPE", "VALUE", "STATUS"}, rows)
}

func printDropped(log *logger.Logger, dropped []zonefile.LineError) {
	for _, lineErr := range dropped {
		log.Warn("Dropped %v: %s", &lineErr, lineErr.Text)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
