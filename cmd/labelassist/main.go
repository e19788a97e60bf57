package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sellertools/labelassist/internal/app"
	"github.com/sellertools/labelassist/internal/config"
	"github.com/sellertools/labelassist/internal/observability"
)

const usage = `Usage: labelassist [flags] <command> [args]

Commands:
  refresh [page.html]   Scan the order manager page, reconcile against the
                        hub API, and rebuild the local cache. Reads the page
                        from the given file, from stdin with "-", or fetches
                        the configured orders_page_url when omitted.
  fill <order-number>   Fill the carrier's create-label form from the cache.
  test                  Verify the relay and hub API are reachable.
  note <id> <text>      Attach a customer note to an order.

Flags:
`

func main() {
	// Parse flags
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load configuration
	cfg := config.LoadOrEnvWithPath(*configFile)

	// Setup logging
	if *verbose {
		cfg.Observability.Logging.Level = slog.LevelDebug.String()
	}
	logger := observability.NewLogger(cfg.Observability.Logging)

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	switch cmd := flag.Arg(0); cmd {
	case "refresh":
		runRefresh(ctx, a, flag.Arg(1), logger)
	case "fill":
		if flag.NArg() < 2 {
			logger.Error("fill requires an order number")
			os.Exit(2)
		}
		if err := a.Fill(ctx, flag.Arg(1)); err != nil {
			logger.Error("Fill failed", slog.String("order", flag.Arg(1)), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Form filled", slog.String("order", flag.Arg(1)))
	case "test":
		if err := a.TestConnection(ctx); err != nil {
			logger.Error("Connection test failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Connection OK")
	case "note":
		if flag.NArg() < 3 {
			logger.Error("note requires an order id and the note text")
			os.Exit(2)
		}
		if err := a.AttachNote(ctx, flag.Arg(1), flag.Arg(2)); err != nil {
			logger.Error("Failed to attach note", slog.String("order_id", flag.Arg(1)), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Note attached", slog.String("order_id", flag.Arg(1)))
	default:
		logger.Error("Unknown command", slog.String("command", cmd))
		flag.Usage()
		os.Exit(2)
	}
}

func runRefresh(ctx context.Context, a *app.App, pageArg string, logger *slog.Logger) {
	page, err := openPage(ctx, a, pageArg)
	if err != nil {
		logger.Error("Failed to read order page", slog.String("error", err.Error()))
		os.Exit(1)
	}

	summary, err := a.Refresh(ctx, page)
	if err != nil {
		logger.Error("Refresh failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Refresh complete",
		slog.Int("rows_scanned", summary.RowsScanned),
		slog.Int("orders_cached", summary.OrdersCached),
	)
}

func openPage(ctx context.Context, a *app.App, pageArg string) (io.Reader, error) {
	switch pageArg {
	case "":
		return a.FetchOrderPage(ctx)
	case "-":
		return os.Stdin, nil
	default:
		data, err := os.ReadFile(pageArg)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
