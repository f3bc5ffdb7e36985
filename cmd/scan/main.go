// Command scan runs one universe scan and prints the results, as a
// table or CSV. Intended for cron jobs and ad-hoc runs without the
// server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalscan/config"
	"signalscan/internal/logger"
	"signalscan/internal/model"
	"signalscan/internal/provider"
	"signalscan/internal/report"
	"signalscan/internal/scanner"
	"signalscan/internal/universe"
)

func main() {
	var (
		symbolsFlag = flag.String("symbols", "", "comma-separated symbols (default: NSE-500)")
		fileFlag    = flag.String("file", "", "symbols file, one per line")
		csvFlag     = flag.String("csv", "", "write results as CSV to this path ('-' for stdout)")
		crossFlag   = flag.String("cross", "", "filter: golden or death")
		actionFlag  = flag.String("action", "", "filter: BUY, HOLD or SELL")
		quietFlag   = flag.Bool("quiet", false, "suppress the progress line")
	)
	flag.Parse()

	cfg := config.Load()
	logger.Init("scan", slog.LevelWarn)

	symbols, err := resolveSymbols(cfg, *symbolsFlag, *fileFlag)
	if err != nil {
		log.Fatalf("[scan] %v", err)
	}

	prov := buildProvider(cfg)

	var sink scanner.ProgressSink
	if !*quietFlag {
		sink = scanner.SinkFunc(func(processed, total int) {
			fmt.Fprintf(os.Stderr, "\rscanning %d/%d", processed, total)
			if processed == total {
				fmt.Fprintln(os.Stderr)
			}
		})
	}

	sc := scanner.New(prov, scanner.Config{
		Lookback:      cfg.Lookback(),
		RecencyWindow: cfg.RecencyWindow,
		Concurrency:   cfg.Concurrency,
	}, sink, nil, nil)

	// Ctrl-C stops issuing fetches and prints what was gathered.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := sc.Scan(ctx, symbols)
	if err != nil {
		log.Fatalf("[scan] %v", err)
	}
	rep = rep.Filter(parseCross(*crossFlag), parseAction(*actionFlag))

	if *csvFlag != "" {
		if err := writeCSV(*csvFlag, rep.Rows); err != nil {
			log.Fatalf("[scan] %v", err)
		}
		return
	}
	printTable(rep)
}

func resolveSymbols(cfg *config.Config, symbolsFlag, fileFlag string) ([]string, error) {
	switch {
	case symbolsFlag != "":
		return universe.Parse(symbolsFlag), nil
	case fileFlag != "":
		return universe.FromFile(fileFlag)
	case cfg.Symbols != "":
		return universe.Parse(cfg.Symbols), nil
	case cfg.UniverseFile != "":
		return universe.FromFile(cfg.UniverseFile)
	default:
		return universe.Default(), nil
	}
}

func buildProvider(cfg *config.Config) scanner.Provider {
	if cfg.Provider == "angel" {
		tokens, err := provider.LoadTokenMap(cfg.AngelTokensFile)
		if err != nil {
			log.Fatalf("[scan] %v", err)
		}
		return provider.NewAngel(provider.AngelConfig{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
			Tokens:     tokens,
		})
	}
	return provider.NewYahoo()
}

func writeCSV(path string, rows []model.ScanRow) error {
	if path == "-" {
		return report.WriteCSV(os.Stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteCSV(f, rows)
}

func printTable(rep *scanner.Report) {
	if rep.Partial() {
		fmt.Printf("partial scan: %d of %d symbols processed\n", rep.Processed, rep.TotalSymbols)
	}
	if len(rep.Rows) == 0 {
		fmt.Println("no recent crossovers found")
		printSkips(rep)
		return
	}

	fmt.Printf("%-14s %-14s %-12s %10s %9s %7s %8s  %s\n",
		"SYMBOL", "CROSS", "DATE", "PRICE", "CHANGE", "RSI", "ACTION", "REASON")
	for _, row := range rep.Rows {
		fmt.Printf("%-14s %-14s %-12s %10.2f %+8.2f%% %7.2f %8s  %s\n",
			row.Symbol,
			row.CrossKind,
			row.CrossDate.Format("2006-01-02"),
			row.CurrentPrice,
			row.ChangePct,
			row.RSI,
			row.Recommendation.Action,
			row.Recommendation.Reason,
		)
	}
	fmt.Printf("\n%d matches from %d symbols (%s)\n",
		len(rep.Rows), rep.TotalSymbols, rep.GeneratedAt.Format(time.RFC3339))
	printSkips(rep)
}

func printSkips(rep *scanner.Report) {
	for reason, n := range rep.Skipped {
		fmt.Printf("  skipped %d: %s\n", n, reason)
	}
}

func parseCross(raw string) model.CrossKind {
	switch raw {
	case "golden":
		return model.GoldenCross
	case "death":
		return model.DeathCross
	default:
		return ""
	}
}

func parseAction(raw string) model.Action {
	switch raw {
	case "BUY", "buy":
		return model.ActionBuy
	case "HOLD", "hold":
		return model.ActionHold
	case "SELL", "sell":
		return model.ActionSell
	default:
		return ""
	}
}
