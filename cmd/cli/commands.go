package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sheetdiff/adapters/excel"
	"sheetdiff/app"
	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
	"sheetdiff/internal"
	"sheetdiff/internal/config"
	"sheetdiff/internal/container"
	"sheetdiff/internal/progress"
	"sheetdiff/internal/reconcile"
	"sheetdiff/internal/report"
	"sheetdiff/ports"
)

// session is the configuration shared by every command
type session struct {
	cfg     *config.Config
	verbose bool
}

func (s *session) logger(cmd *cobra.Command) *internal.Logger {
	logging := s.cfg.Logging
	if !s.verbose {
		logging.Level = "WARN"
	}
	return container.NewLogger(logging, cmd.ErrOrStderr())
}

func (s *session) reader(cmd *cobra.Command) (*excel.DataReader, error) {
	ec, err := container.ExcelConfig(s.cfg)
	if err != nil {
		return nil, err
	}
	return excel.NewDataReader(ec, s.logger(cmd)), nil
}

func newRootCmd() *cobra.Command {
	s := &session{}
	rootCmd := &cobra.Command{
		Use:           "sheetdiff-cli",
		Short:         "Compare a baseline and a candidate spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s.cfg = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Log at the configured LOG_LEVEL instead of warnings only")

	rootCmd.AddCommand(
		newCompareCmd(s),
		newKeysCmd(s),
		newSheetsCmd(s),
	)
	return rootCmd
}

func newCompareCmd(s *session) *cobra.Command {
	var (
		headerRow  int
		keyFields  string
		sheetName  string
		outDir     string
		readOnly   bool
		strictKeys bool
	)

	cmd := &cobra.Command{
		Use:   "compare BASELINE CANDIDATE",
		Short: "Write annotated copies of both documents and a diff document",
		Long: `Compare two spreadsheets row by row and cell by cell.

Three files are written to --out: the annotated baseline, the annotated
candidate and the diff document. A markdown summary is printed on success.

Example: sheetdiff-cli compare may.xlsx june.xlsx --keys "Department,Contract" --out results`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg
			if !cmd.Flags().Changed("header-row") {
				headerRow = cfg.Compare.HeaderRow
			}
			if !cmd.Flags().Changed("keys") {
				keyFields = cfg.Compare.KeyFields
			}
			if !cmd.Flags().Changed("sheet") {
				sheetName = cfg.Compare.SheetName
			}
			if !cmd.Flags().Changed("read-only") {
				readOnly = cfg.Compare.ReadOnly
			}
			if !cmd.Flags().Changed("strict-keys") {
				strictKeys = cfg.Compare.StrictKeys
			}
			if outDir == "" {
				outDir = cfg.Server.ResultsDir
			}

			fields, err := reconcile.ParseKeyFields(keyFields)
			if err != nil {
				return err
			}

			logger := s.logger(cmd)
			c, err := container.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			req := &run.Request{
				ID:         core.NewRunID(),
				Baseline:   run.Source{Path: args[0]},
				Candidate:  run.Source{Path: args[1]},
				HeaderRow:  headerRow,
				KeyFields:  fields,
				SheetName:  sheetName,
				ReadOnly:   readOnly,
				StrictKeys: strictKeys,
			}
			started := time.Now()
			req.Outputs = app.OutputNames(outDir, filepath.Base(args[0]), core.Stamp(started))

			errOut := cmd.ErrOrStderr()
			printer := ports.ProgressFunc(func(ev ports.ProgressEvent) {
				fmt.Fprintln(errOut, progress.Format(ev))
			})

			sum, err := c.CompareService.Compare(cmd.Context(), req, printer)
			fmt.Fprint(cmd.OutOrStdout(), report.Markdown(run.NewRecord(req, sum, started, time.Now()), sum))
			return err
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", sheet.DefaultHeaderRow, "1-based row holding column headers")
	cmd.Flags().StringVar(&keyFields, "keys", "", `Key fields, e.g. "1-3" or "Department,Contract" (default: first three headers)`)
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet to compare (default: first sheet)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the three outputs (default: RESULTS_DIR)")
	cmd.Flags().BoolVar(&readOnly, "read-only", true, "Mark outputs read-only after writing")
	cmd.Flags().BoolVar(&strictKeys, "strict-keys", false, "Fail when a row key repeats instead of keeping the later row")

	return cmd
}

func newKeysCmd(s *session) *cobra.Command {
	var (
		headerRow int
		keyFields string
		sheetName string
	)

	cmd := &cobra.Command{
		Use:   "keys FILE",
		Short: "Show how key fields resolve against a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("header-row") {
				headerRow = s.cfg.Compare.HeaderRow
			}
			if !cmd.Flags().Changed("keys") {
				keyFields = s.cfg.Compare.KeyFields
			}
			fields, err := reconcile.ParseKeyFields(keyFields)
			if err != nil {
				return err
			}

			reader, err := s.reader(cmd)
			if err != nil {
				return err
			}
			src := run.Source{Path: args[0]}
			doc, err := reader.Load(cmd.Context(), src, ports.LoadOptions{SheetName: sheetName, HeaderRow: headerRow})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(fields) == 0 {
				fields = reconcile.DefaultKeyFields(doc)
				fmt.Fprintf(out, "default key fields: %s\n", strings.Join(fields, ", "))
			}
			km := reconcile.ResolveKeys(doc, fields)
			fmt.Fprintf(out, "%s, sheet %q, header row %d\n", src.DisplayName(), doc.SheetName, doc.HeaderRow)
			for _, f := range km.Fields {
				if col, ok := km.Column(f); ok {
					fmt.Fprintf(out, "  %-20s column %d (%s)\n", f, col, doc.HeaderName(col))
				} else {
					fmt.Fprintf(out, "  %-20s not found\n", f)
				}
			}
			if !km.HasAllKeys() {
				fmt.Fprintf(out, "missing: %s; rows will be matched by content\n", strings.Join(km.Missing(), ", "))
				return nil
			}

			idx, err := reconcile.BuildKeyIndex(cmd.Context(), src.DisplayName(), doc, km)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d distinct keys, %d duplicates\n", idx.Len(), len(idx.Duplicates))
			for _, d := range idx.Duplicates {
				fmt.Fprintf(out, "  duplicate %s: row %d shadows row %d\n", d.Key, d.Kept, d.Shadow)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", sheet.DefaultHeaderRow, "1-based row holding column headers")
	cmd.Flags().StringVar(&keyFields, "keys", "", "Key fields to resolve (default: first three headers)")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet to inspect (default: first sheet)")
	return cmd
}

func newSheetsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List the worksheets of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := s.reader(cmd)
			if err != nil {
				return err
			}
			names, err := reader.SheetNames(cmd.Context(), run.Source{Path: args[0]})
			if err != nil {
				return err
			}
			for i, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, name)
			}
			return nil
		},
	}
}
