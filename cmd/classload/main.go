package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"classload/internal/api"
	"classload/internal/config"
	"classload/internal/connectors"
	"classload/internal/editor"
	"classload/internal/gateway"
	"classload/internal/listener"
	"classload/internal/logger"
	"classload/internal/pipeline"
	"classload/internal/schedule"
	"classload/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	switch cmd {
	case "load:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "load sheet (xlsx|csv|html|pdf|txt)")
		out := fs.String("out", "", "optional xlsx review export")
		asJSON := fs.Bool("json", false, "print offerings as JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		result, err := pipeline.ParseFile(*input)
		must(err)
		if *out != "" {
			must(pipeline.ExportOfferingsToXLSX(pipeline.ExportRowsFromResult(filepath.Base(*input), result), *out))
		}
		if *asJSON {
			printJSON(result)
			return
		}
		fmt.Printf("parsed offerings=%d instructors=%d skipped=%d schoolYear=%s semester=%s\n",
			result.Summary.OfferingsCount, result.Summary.Instructors, result.Summary.RowsSkipped, result.SchoolYear, result.Semester)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		conn, err := listener.NewConnector(ctx, *provider, cfg, log)
		must(err)
		result, err := connectors.NewFetchService(db, cfg.RawMailDir, conn, log).FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d failed=%d\n", *provider, result.Fetched, result.Stored, result.Failed)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		processor := pipeline.NewProcessingService(db, cfg, log)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(connectors.NormalizeProvider(*provider), *messageID)
			must(err)
			fmt.Printf("processed load id=%d sheets=%d offerings=%d\n", res.LoadID, res.Sheets, res.Offerings)
			return
		}
		loads, offerings, err := processor.ProcessPending(*batch, connectors.NormalizeProvider(*provider))
		must(err)
		fmt.Printf("processed pending loads=%d offerings=%d\n", loads, offerings)
	case "mail:listen":
		db := openDB(cfg)
		defer db.Close()
		must(listener.NewService(db, cfg, log).Run(ctx))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		loadID := fs.Int("loadId", 0, "internal load id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *loadID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--loadId and --out are required"))
		}
		db := openDB(cfg)
		defer db.Close()
		rows, err := db.GetExportRows(*loadID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for loadId=%d", *loadID))
		}
		must(pipeline.ExportOfferingsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "schedule:generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "load sheet to schedule")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		result, err := pipeline.ParseFile(*input)
		must(err)
		res, err := gateway.NewClient(cfg, log).GenerateSchedule(ctx, gateway.GenerateRequest{
			InstructorData: pipeline.ToGenerationOfferings(result.Offerings),
			Semester:       result.Semester,
			SchoolYear:     result.SchoolYear,
		})
		must(err)
		log.Info("schedule generated", zap.String("group", res.GroupID), zap.Int("entries", len(res.Data)))
		printJSON(schedule.Sections(res.Data))
	case "edits:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		group := fs.String("group", "", "schedule group id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*group) == "" {
			must(fmt.Errorf("--group is required"))
		}
		db := openDB(cfg)
		defer db.Close()
		edits, err := db.ListEdits(*group)
		must(err)
		printJSON(edits)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		rules, err := editor.RulesFromConfig(cfg)
		must(err)
		h := api.NewHandler(gateway.NewClient(cfg, log), editor.Options{
			Policy:  cfg.ValidationFailurePolicy,
			Rules:   rules,
			Journal: db,
			Log:     log,
		}, log)
		must(api.Serve(ctx, *addr, api.NewRouter(h, log), log))
	default:
		usage()
		os.Exit(1)
	}
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: classload <command>")
	fmt.Println("commands:")
	fmt.Println("  load:parse --input=load.xlsx [--out=review.xlsx] [--json]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --loadId=1 --out=./out/result.xlsx")
	fmt.Println("  schedule:generate --input=load.xlsx")
	fmt.Println("  edits:list --group=...")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
