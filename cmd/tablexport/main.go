// Command tablexport exports the tables and lists of a YAML document to xlsx,
// either once from the command line or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/aerissecure/tablexport"
	"github.com/aerissecure/tablexport/internal/config"
	"github.com/aerissecure/tablexport/internal/document"
	"github.com/aerissecure/tablexport/web"
	"github.com/aerissecure/tablexport/xlsx"
)

var (
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tablexport",
	Short:         "Export tables and lists to Excel workbooks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	outPath       string
	title         string
	pageOnly      bool
	selectionOnly bool
	subTable      bool
	asHTML        bool
)

var exportCmd = &cobra.Command{
	Use:   "export <document> <target>",
	Short: "Export one or more targets of a document",
	Long: `Exports the tables and lists named by target (comma separated ids) from a
YAML document. The workbook is written to --out, or <filename>.xlsx from the
configuration. With --html a preview page is written instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

var serveCmd = &cobra.Command{
	Use:   "serve <document>",
	Short: "Serve exports of a document over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file")
	exportCmd.Flags().StringVar(&title, "title", "", "Title written above a single target")
	exportCmd.Flags().BoolVar(&pageOnly, "page-only", false, "Export only the current page")
	exportCmd.Flags().BoolVar(&selectionOnly, "selection-only", false, "Export only the selected rows")
	exportCmd.Flags().BoolVar(&subTable, "sub-table", false, "Export every row as a grouped sub-table")
	exportCmd.Flags().BoolVar(&asHTML, "html", false, "Write an HTML preview instead of a workbook")

	rootCmd.AddCommand(exportCmd, serveCmd)
}

func loadView(path string) (tablexport.MapView, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return doc.View()
}

func runExport(cmd *cobra.Command, args []string) error {
	view, err := loadView(args[0])
	if err != nil {
		return err
	}
	if title == "" {
		title = cfg.Export.Title
	}
	format := cfg.Format
	req := tablexport.Request{
		Target:        args[1],
		Title:         title,
		PageOnly:      pageOnly,
		SelectionOnly: selectionOnly,
		SubTable:      subTable,
		Format:        &format,
	}
	ex := tablexport.New(tablexport.WithLogger(logger.Named("exporter")))

	out := outPath
	if out == "" {
		ext := ".xlsx"
		if asHTML {
			ext = ".html"
		}
		out = cfg.Export.Filename + ext
	}

	var res tablexport.Result
	if asHTML {
		var page string
		page, res, err = xlsx.Preview(cmd.Context(), ex, view, cfg.Export.Filename, req)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	} else {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		res, err = xlsx.Export(cmd.Context(), f, ex, view, cfg.Export.Filename, req)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(out)
			return err
		}
	}
	logger.Info("export written",
		zap.String("path", out),
		zap.Strings("targets", res.Targets),
		zap.Int("rows", res.Rows),
		zap.Int("columns", res.MaxColumns))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	doc, err := document.Load(args[0])
	if err != nil {
		return err
	}
	if _, err := doc.View(); err != nil {
		return err
	}
	// every request gets its own models, lazy windows are not shared
	views := func() (tablexport.View, error) {
		v, err := doc.View()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	h := web.NewHandler(views,
		web.WithLogger(logger.Named("web")),
		web.WithFormat(cfg.Format),
		web.WithDownloadCookie(cfg.Server.Cookie(web.DefaultDownloadCookie)),
		web.WithDefaults(cfg.Export.Filename, cfg.Export.Title))
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
