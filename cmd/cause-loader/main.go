package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"cause-loader/loader"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath      string
		input           string
		limit           int
		bufferDir       string
		timeout         time.Duration
		dbDriver        string
		dsn             string
		dbName          string
		converterCmd    string
		converterStdout bool
		showProgress    bool
		showErrors      bool
		debug           bool
	)

	cmd := &cobra.Command{
		Use:   "cause-loader",
		Short: "Load court decision documents into the cause / cause_document tables",
		Long: `cause-loader reads a tab-separated export of court decisions, drops
records with missing or malformed case numbers and dead document links,
converts every RTF decision to cleaned HTML and stores it next to its case.

Example:
  cause-loader --input documents.csv --db-driver mysql \
      --dsn 'user:pass@tcp(127.0.0.1:3306)/' --db-name Causes --progress --errors`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg := &loader.FileConfig{}
			if configPath != "" {
				cfg, err := loader.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				fileCfg = cfg
			}

			// Flags override the config file only when given explicitly.
			flags := cmd.Flags()
			if flags.Changed("input") || fileCfg.Input == "" {
				fileCfg.Input = input
			}
			if flags.Changed("limit") {
				fileCfg.Limit = limit
			}
			if flags.Changed("buffer") {
				fileCfg.BufferDir = bufferDir
			}
			if flags.Changed("db-driver") {
				fileCfg.Database.Driver = dbDriver
			}
			if flags.Changed("dsn") || fileCfg.Database.DSN == "" {
				fileCfg.Database.DSN = dsn
			}
			if flags.Changed("db-name") {
				fileCfg.Database.Name = dbName
			}
			if flags.Changed("converter") {
				fileCfg.Converter.Command = strings.Fields(converterCmd)
			}
			if flags.Changed("converter-stdout") {
				fileCfg.Converter.Stdout = converterStdout
			}
			if flags.Changed("progress") {
				fileCfg.ShowProgress = showProgress
			}
			if flags.Changed("errors") {
				fileCfg.ShowErrors = showErrors
			}
			if flags.Changed("debug") {
				fileCfg.Debug = debug
			}

			finalTimeout := timeout
			if !flags.Changed("timeout") && strings.TrimSpace(fileCfg.Timeout) != "" {
				d, err := time.ParseDuration(fileCfg.Timeout)
				if err != nil {
					return fmt.Errorf("parse timeout %q: %w", fileCfg.Timeout, err)
				}
				finalTimeout = d
			}

			runner, err := loader.NewRunner(loader.RunnerConfig{
				InputPath:      fileCfg.Input,
				Limit:          fileCfg.Limit,
				BufferDir:      fileCfg.BufferDir,
				Timeout:        finalTimeout,
				Database:       fileCfg.Database,
				ConverterCmd:   fileCfg.Converter.Command,
				ConverterToOut: fileCfg.Converter.Stdout,
				ShowProgress:   fileCfg.ShowProgress,
				ShowErrors:     fileCfg.ShowErrors,
				Debug:          fileCfg.Debug,
			})
			if err != nil {
				return fmt.Errorf("init runner: %w", err)
			}
			defer runner.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			report, runErr := runner.Run(ctx)
			printReport(cmd, report)
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file path")
	f.StringVarP(&input, "input", "i", "documents.csv", "tab-separated decision export")
	f.IntVar(&limit, "limit", 0, "process only the first N rows (0 = all)")
	f.StringVar(&bufferDir, "buffer", "buff", "directory for transient RTF/HTML files")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "timeout for each HTTP request")
	f.StringVar(&dbDriver, "db-driver", loader.DriverSQLite, "database driver: sqlite or mysql")
	f.StringVar(&dsn, "dsn", "causes.db", "SQLite file or MySQL DSN (without database)")
	f.StringVar(&dbName, "db-name", "", "MySQL database to create and use")
	f.StringVar(&converterCmd, "converter", strings.Join(loader.DefaultConverterCommand, " "), "RTF to HTML command; {src} {dst} {outdir} are substituted")
	f.BoolVar(&converterStdout, "converter-stdout", false, "converter prints HTML to stdout instead of writing {dst}")
	f.BoolVar(&showProgress, "progress", false, "log progress every 100 records")
	f.BoolVar(&showErrors, "errors", false, "log indices of records that failed to fetch or convert")
	f.BoolVar(&debug, "debug", false, "enable debug logs")
	return cmd
}

func printReport(cmd *cobra.Command, rp *loader.Report) {
	if rp == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: read=%d valid=%d stored=%d skipped=%d fatal=%d\n",
		rp.RunID, rp.Read, rp.Valid,
		rp.Count(loader.OutcomeStored), rp.Count(loader.OutcomeSkipped), rp.Count(loader.OutcomeFatal))
	for i, row := range rp.Rows {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, row.CauseNum, row.DocURL, humanize.Bytes(uint64(len(row.Content))))
	}
}
