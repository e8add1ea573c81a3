package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/patarapolw/yt2pptx/pkg/logger"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/storage"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// globalFlags registers the flags shared by every subcommand.
func globalFlags(fs *flag.FlagSet) (dbPath, outDir *string) {
	dbPath = fs.String("db", getEnvOrDefault("YT2PPTX_DB_PATH", storage.DefaultDBFile),
		"Path to the manifest database")
	outDir = fs.String("out", getEnvOrDefault("YT2PPTX_OUT_DIR", "out"),
		"Directory for downloads, frames and decks")
	return dbPath, outDir
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "convert":
		handleConvert(ctx)
	case "list":
		handleList()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleConvert(ctx context.Context) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	dbPath, outDir := globalFlags(fs)
	interval := fs.Int("interval", 2, "Seconds between sampled frames")
	threshold := fs.Int("threshold", -1, "Similarity threshold (default: derived from the video)")
	workers := fs.Int("workers", 0, "Fingerprinting workers (default: number of CPUs)")

	// Positional arguments may precede or follow the flags.
	var positional []string
	var flagArgs []string
	for i, arg := range os.Args[2:] {
		if len(arg) > 0 && arg[0] == '-' {
			flagArgs = append(flagArgs, os.Args[2+i:]...)
			break
		}
		positional = append(positional, arg)
	}
	fs.Parse(flagArgs)
	positional = append(positional, fs.Args()...)

	if len(positional) < 1 {
		fmt.Println("Usage: yt2pptx convert <url_or_id> [output_base] [--interval N] [--threshold N]")
		os.Exit(1)
	}
	urlOrID := positional[0]
	baseName := ""
	if len(positional) > 1 {
		baseName = positional[1]
	}

	opts := []yt2pptx.Option{
		yt2pptx.WithDBPath(*dbPath),
		yt2pptx.WithOutDir(*outDir),
		yt2pptx.WithInterval(*interval),
		yt2pptx.WithWorkers(*workers),
	}
	if *threshold >= 0 {
		opts = append(opts, yt2pptx.WithThreshold(*threshold))
	}

	svc, err := yt2pptx.NewService(opts...)
	if err != nil {
		fmt.Printf("❌ Failed to initialize: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	fmt.Println("🔽 Converting video, this may take a while...")
	res, err := svc.Convert(ctx, urlOrID, baseName)
	if err != nil {
		fmt.Printf("❌ Conversion failed: %v\n", err)
		log.Errorf("Convert failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Deck created!")
	fmt.Printf("   Video:     %s (%s)\n", res.Title, res.VideoID)
	fmt.Printf("   Deck:      %s\n", res.DeckPath)
	fmt.Printf("   Slides:    %d kept, %d dropped as duplicates\n", res.KeptCount, res.DroppedCount)
	if res.Reused {
		fmt.Println("   Frames were already deduplicated at this interval; deck rebuilt from them.")
	} else if res.ThresholdDerived {
		fmt.Printf("   Threshold: %d (derived)\n", res.Threshold)
	} else {
		fmt.Printf("   Threshold: %d\n", res.Threshold)
	}
	if res.FailedCleanups > 0 {
		fmt.Printf("   ⚠️  %d frame files could not be cleaned up (see log)\n", res.FailedCleanups)
	}
}

func handleList() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath, outDir := globalFlags(fs)
	fs.Parse(os.Args[2:])

	svc, err := yt2pptx.NewService(
		yt2pptx.WithDBPath(*dbPath),
		yt2pptx.WithOutDir(*outDir),
	)
	if err != nil {
		fmt.Printf("❌ Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	runs, err := svc.ListRuns()
	if err != nil {
		fmt.Printf("❌ Failed to list runs: %v\n", err)
		log.Errorf("ListRuns failed: %v", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("📭 No conversion runs recorded")
		return
	}

	fmt.Printf("📚 %d run(s):\n\n", len(runs))
	for i, run := range runs {
		status := "incomplete"
		if run.CompletedAt != nil {
			status = "completed " + run.CompletedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%d. %s @ %ds — %s (ID: %s)\n", i+1, run.VideoID, run.IntervalSeconds, status, run.ID)
		if run.CompletedAt != nil {
			fmt.Printf("   threshold %d, %d kept / %d dropped", run.Threshold, run.KeptCount, run.DroppedCount)
			if run.KeptCount > 0 {
				total := (run.KeptCount + run.DroppedCount) * run.IntervalSeconds
				fmt.Printf(", ~%s of video", timestamp.Format(total))
			}
			fmt.Println()
			if run.DeckPath != "" {
				fmt.Printf("   deck: %s\n", run.DeckPath)
			}
		}
	}
}

func handleDelete() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dbPath, outDir := globalFlags(fs)

	args := os.Args[2:]
	if len(args) < 1 || args[0] == "" || args[0][0] == '-' {
		fmt.Println("Usage: yt2pptx delete <run_id>")
		os.Exit(1)
	}
	runID := args[0]
	fs.Parse(args[1:])

	svc, err := yt2pptx.NewService(
		yt2pptx.WithDBPath(*dbPath),
		yt2pptx.WithOutDir(*outDir),
	)
	if err != nil {
		fmt.Printf("❌ Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := svc.DeleteRun(runID); err != nil {
		fmt.Printf("❌ Failed to delete run: %v\n", err)
		log.Errorf("DeleteRun failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Deleted run %s\n", runID)
}

func printUsage() {
	fmt.Println("yt2pptx - YouTube video to slide deck")
	fmt.Println("\nUsage:")
	fmt.Println("  yt2pptx convert <url_or_id> [output_base] [options]")
	fmt.Println("  yt2pptx list [options]")
	fmt.Println("  yt2pptx delete <run_id> [options]")
	fmt.Println("\nOptions:")
	fmt.Println("  --db <path>      Manifest database (env: YT2PPTX_DB_PATH, default: " + storage.DefaultDBFile + ")")
	fmt.Println("  --out <dir>      Output directory (env: YT2PPTX_OUT_DIR, default: out)")
	fmt.Println("  --interval <s>   Seconds between sampled frames (convert only, default: 2)")
	fmt.Println("  --threshold <n>  Fixed similarity threshold (convert only, default: derived)")
	fmt.Println("  --workers <n>    Fingerprinting workers (convert only, default: CPUs)")
	fmt.Println("\nExamples:")
	fmt.Println("  yt2pptx convert https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	fmt.Println("  yt2pptx convert dQw4w9WgXcQ \"My Lecture\" --interval 5")
	fmt.Println("  yt2pptx list")
}
