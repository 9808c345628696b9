package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/importer"
	"github.com/kreigan/zone-importer/internal/logger"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

var importCmd = &cobra.Command{
	Use:   "import [zone-file]",
	Short: "Import a zone file into Intelligent DNS",
	Long: `Import the valid records of a BIND-style zone file into Intelligent DNS.

This command:
1. Parses the zone file and drops SOA and NS records, which the destination manages
2. Uses --zone-id when given, otherwise finds the zone by its SOA name or creates it
3. Creates the records in chunks, retrying transport failures

Records rejected by the destination are listed at the end. The command fails
only if no record could be imported.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runImport,
}

var (
	importZoneID      string
	importOnDuplicate string
	importDryRun      bool
	importAutoConfirm bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importZoneID, "zone-id", "", "Destination zone id (skips zone lookup and creation)")
	importCmd.Flags().StringVar(&importOnDuplicate, "on-duplicate", "",
		"What to do with records that already exist: fail or replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show the records that would be created without sending them")
	importCmd.Flags().BoolVarP(&importAutoConfirm, "auto-confirm", "y", false, "Skip confirmation prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	g, err := loadGlobals(cmd)
	if err != nil {
		return err
	}
	cfg, log := g.cfg, g.log
	log.SetDryRun(importDryRun)

	if importZoneID != "" {
		cfg.API.ZoneID = importZoneID
	}
	if importOnDuplicate != "" {
		cfg.Import.OnDuplicate = importOnDuplicate
	}
	if verr := cfg.Validate(!importDryRun); verr != nil {
		return verr
	}

	zoneFile := args[0]
	log.Info("Parsing %s", zoneFile)
	parsed, err := zonefile.ParseFile(zoneFile, zonefile.WithLogger(log.Logr()))
	if err != nil {
		return err
	}
	printDropped(log, parsed.Dropped)

	valid := zonefile.Valid(parsed.Records)
	wire := azion.Transform(valid)
	log.Info("Found %d record(s), %d valid, %d importable", len(parsed.Records), len(valid), len(wire))

	printPlan(log, wire)

	if importDryRun {
		printDryRunResult(cmd, g, valid, wire)
		return nil
	}
	if len(wire) == 0 {
		return importer.ErrNoRecords
	}

	if !g.json && !importAutoConfirm && !confirm(cmd, fmt.Sprintf("Import %d record(s)?", len(wire))) {
		return errAborted
	}

	client := azion.NewClient(cfg.API.URL, cfg.API.Token, log)
	if cfg.API.Timeout > 0 {
		client.SetHTTPClient(&http.Client{Timeout: cfg.API.Timeout})
	}
	imp := importer.New(client, cfg.ImporterConfig(), log.Logr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, runErr := imp.Run(ctx, valid, importer.RunOptions{
		ZoneID:  cfg.API.ZoneID,
		OnEvent: progressPrinter(log),
	})

	printImportResult(cmd, g, result)

	if runErr != nil {
		return fmt.Errorf("import failed: %w", runErr)
	}
	return nil
}

// errAborted is returned when the user declines the confirmation prompt.
var errAborted = errors.New("operation aborted by user")

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func printPlan(log *logger.Logger, wire []azion.Record) {
	if len(wire) == 0 {
		log.Info("No records to create")
		return
	}
	log.Info("Records to create:")
	for _, rec := range wire {
		log.Diff("+", fmt.Sprintf("%s %d %s %s", rec.Entry, rec.TTL, rec.RecordType, strings.Join(rec.AnswersList, ", ")))
	}
}

// progressPrinter renders the importer's events on the console.
func progressPrinter(log *logger.Logger) importer.EventFunc {
	return func(ev importer.Event) {
		switch ev.Kind {
		case importer.EventStarted:
			log.Info("Importing %d record(s)...", ev.Total)
		case importer.EventZoneResolved, importer.EventZoneCreated:
			log.Info("%s", ev.Message)
		case importer.EventProgress:
			log.Progress(ev.Percent, ev.Imported, ev.Total)
		case importer.EventWarning:
			log.Warn("%s", ev.Message)
		case importer.EventComplete:
			log.Info("%s", ev.Message)
		case importer.EventError:
			log.Debug("Import stopped: %s", ev.Message)
		}
	}
}

func printDryRunResult(cmd *cobra.Command, g *globals, valid []zonefile.Record, wire []azion.Record) {
	zone := g.cfg.API.ZoneID
	if zone == "" {
		zone = valueOr(importer.ApexDomain(valid), "(cannot be determined)")
	}

	if g.json {
		g.log.InfoWithData("Dry run completed", map[string]interface{}{
			"zone":    zone,
			"records": len(wire),
		})
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n[DRY RUN] Results:\n")
	fmt.Fprintf(out, "  Zone:              %s\n", zone)
	fmt.Fprintf(out, "  Records to create: %d\n", len(wire))
}

func printImportResult(cmd *cobra.Command, g *globals, result *importer.Result) {
	if g.json {
		failures := make([]map[string]interface{}, 0, len(result.Failures))
		for _, f := range result.Failures {
			failures = append(failures, map[string]interface{}{
				"entry":   f.Entry,
				"type":    f.RecordType,
				"message": f.Message,
			})
		}
		g.log.InfoWithData("Import completed", map[string]interface{}{
			"status":      result.Status,
			"zoneId":      result.ZoneID,
			"zoneCreated": result.ZoneCreated,
			"imported":    result.Imported,
			"total":       result.Total,
			"failures":    failures,
		})
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nResults:\n")
	fmt.Fprintf(out, "  Zone:            %s\n", valueOr(result.ZoneID, "(none)"))
	fmt.Fprintf(out, "  Zone created:    %t\n", result.ZoneCreated)
	fmt.Fprintf(out, "  Records created: %d/%d\n", result.Imported, result.Total)

	if len(result.Failures) > 0 {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "\nFailed records:\n")
		for _, f := range result.Failures {
			fmt.Fprintf(errOut, "  - %s %s: %s\n", f.Entry, f.RecordType, f.Message)
		}
	}
}
