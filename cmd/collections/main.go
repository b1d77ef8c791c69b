package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
	"github.com/TobiSchelling/CollectionsReport/internal/config"
	"github.com/TobiSchelling/CollectionsReport/internal/database"
	"github.com/TobiSchelling/CollectionsReport/internal/pipeline"
	"github.com/TobiSchelling/CollectionsReport/internal/report"
	"github.com/TobiSchelling/CollectionsReport/internal/server"
	"github.com/TobiSchelling/CollectionsReport/internal/summary"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "collections",
	Short:   "Debt-collections contact reporting",
	Long:    "collections loads account and contact-event exports, summarizes contact activity per account, and writes a wide report for BI tools.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(rejectionsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("collections", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/collections/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your account and contact-event exports.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staging and run status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n", database.GetToday())
		fmt.Printf("Database: %s\n\n", db.Path())

		table := newTable([]string{"Staged", "Count"})
		table.Append([]string{"Accounts", strconv.Itoa(stats.Accounts)})
		table.Append([]string{"Contact events", strconv.Itoa(stats.Events)})
		table.Append([]string{"Classified events", strconv.Itoa(stats.ClassifiedEvents)})
		table.Append([]string{"Account summaries", strconv.Itoa(stats.Summaries)})
		table.Append([]string{"Accounts without activity", strconv.Itoa(stats.AccountsNoActivity)})
		table.Append([]string{"Runs", strconv.Itoa(stats.Runs)})
		table.Render()

		if stats.LastRunID == "" {
			fmt.Println("\nNo completed runs yet. Run 'collections run' to build the report.")
			return nil
		}
		last, err := db.GetRun(stats.LastRunID)
		if err != nil {
			return err
		}
		fmt.Printf("\nLast run %s (%s): %d accounts, %d events, %d rejected, %d orphaned\n",
			database.ShortRunID(last.ID), database.FormatTimestamp(last.StartedAt),
			last.AccountCount, last.EventCount, last.RejectedCount, last.OrphanCount)
		if last.ExportPath != nil {
			fmt.Printf("Report: %s\n", *last.ExportPath)
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun       bool
	outputFormat string
	outputDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: load -> classify -> summarize -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		opts := pipeline.Options{Format: outputFormat, ExportDir: outputDir}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(opts)
		} else {
			result = pipe.Run(ctx, opts)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  %s %v\n", color.RedString("Error:"), step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("pipeline failed")
		}
		if !dryRun {
			fmt.Printf("\n%s Run %s. Use 'collections serve' to browse the report.\n",
				color.GreenString("Pipeline complete!"), database.ShortRunID(result.RunID))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Report format: csv or json (default from config)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Report directory (default from config)")
}

// --- export command ---

var (
	exportFormat string
	exportDir    string
	exportTable  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the report from the stored summaries without recomputing",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		if exportTable {
			latest, err := db.GetLatestRun()
			if err != nil {
				return err
			}
			if latest != nil && latest.Status == database.RunFailed {
				fmt.Println(color.YellowString("Last run %s failed; showing partial staging.", database.ShortRunID(latest.ID)))
			}
			records, err := pipe.Records()
			if err != nil {
				return err
			}
			report.WriteTable(os.Stdout, records)
			return nil
		}

		path, err := pipe.Export(pipeline.Options{Format: exportFormat, ExportDir: exportDir})
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Report format: csv or json (default from config)")
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", "", "Report directory (default from config)")
	exportCmd.Flags().BoolVar(&exportTable, "table", false, "Print a condensed table instead of writing a file")
}

// --- account command ---

var accountCmd = &cobra.Command{
	Use:   "account [account-id]",
	Short: "Show the summary and ranked contact history of one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		accountID := args[0]
		account, err := db.GetAccount(accountID)
		if err != nil {
			return err
		}
		stored, err := db.GetEventsForAccount(accountID)
		if err != nil {
			return err
		}
		if account == nil && len(stored) == 0 {
			return fmt.Errorf("account %s not found", accountID)
		}

		if account == nil {
			fmt.Println(color.YellowString("Account %s is not in the roster; its events are orphaned.", accountID))
		} else {
			sum, err := db.GetSummary(accountID)
			if err != nil {
				return err
			}
			rec := report.NewBuilder(cfg.Output.MissingValue).Record(database.ReportRow{Account: *account, Summary: sum})
			fmt.Printf("Account %s  %s\n", rec.AccountID, rec.CustomerName)
			fmt.Printf("  Contact:      %s\n", rec.Contact())
			fmt.Printf("  Best contact: %s %s %s %s\n", rec.BestContactDate, rec.BestContactChannel, rec.BestContactType, rec.BestOutcome)
			fmt.Printf("  Activities:   %d  Attempts: %d  Promises: %d\n", rec.TotalActivities, rec.TotalAttempts, rec.TotalPromises)
		}

		var classified []activity.ClassifiedEvent
		for _, ev := range stored {
			if ev.Classified {
				classified = append(classified, ev.ClassifiedEvent)
			}
		}
		if len(classified) == 0 {
			fmt.Println("\nNo classified events.")
			return nil
		}

		fmt.Println()
		table := newTable([]string{"Rank", "Seq", "Date", "Channel", "Type", "Outcome", "Actor"})
		for i, ev := range summary.Rank(classified) {
			table.Append([]string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(ev.Seq, 10),
				ev.EventDate.Format(database.DateLayout),
				ev.NormalizedChannel.String(),
				ev.NormalizedContactType.String(),
				ev.Outcome,
				ev.Actor,
			})
		}
		table.Render()
		return nil
	},
}

// --- rejections command ---

var rejectionsCmd = &cobra.Command{
	Use:   "rejections [run-id]",
	Short: "List source rows rejected by a run (default: last run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var runID string
		if len(args) == 1 {
			runID = args[0]
		} else {
			last, err := db.GetLastRun()
			if err != nil {
				return err
			}
			if last == nil {
				fmt.Println("No completed runs yet.")
				return nil
			}
			runID = last.ID
		}

		run, err := db.GetRun(runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runID)
		}

		rejections, err := db.GetRejections(runID)
		if err != nil {
			return err
		}
		if len(rejections) == 0 {
			fmt.Printf("Run %s rejected no rows.\n", database.ShortRunID(runID))
			return nil
		}

		fmt.Printf("Run %s rejected %s:\n\n", database.ShortRunID(runID), color.YellowString("%d rows", len(rejections)))
		table := newTable([]string{"Source", "Line", "Account", "Value", "Reason"})
		for _, r := range rejections {
			raw := ""
			if r.RawValue != nil {
				raw = *r.RawValue
			}
			table.Append([]string{r.Source, strconv.Itoa(r.Line), r.AccountID, raw, r.Reason})
		}
		table.Render()
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port, cfg.Output.MissingValue)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "collections.db")
	return database.Open(dbPath)
}
