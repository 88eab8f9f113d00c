// Command rtgen generates a rainbow table file for one hash/charset/
// length/table-index/part combination, resuming any partial file already
// on disk.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/config"
	"github.com/tmto-labs/rainbowforge/internal/generator"
	"github.com/tmto-labs/rainbowforge/internal/statusserver"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/tablestore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if len(os.Args) < 2 {
		os.Args = append(os.Args, "run")
	}

	switch os.Args[1] {
	case "run":
		runGenerate(os.Args[2:])
	case "version":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Available commands: run, version")
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: rtgen run <hash_charset#min-max_tableindex_chainlenxnumchains_part.rt>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	params, err := tableparams.Parse(args[0])
	if err != nil {
		log.Fatalf("Failed to parse table filename: %v", err)
	}

	var status *statusserver.Server
	if cfg.Status.Enabled {
		status = statusserver.New(cfg.Status.Port, false)
		go func() {
			if err := status.Run(); err != nil {
				log.Printf("status server stopped: %v", err)
			}
		}()
	}

	mgr := &generator.Manager{
		Params:             params,
		Backend:            compute.CPUBackend{},
		OutputDir:          cfg.Generator.OutputDir,
		LockTimeout:        cfg.Generator.LockTimeout,
		MaxChainLenPerPass: cfg.Generator.MaxChainLenPerPass,
	}

	log.Printf("rtgen %s generating %s (%d chains, length %d)", Version, params.Filename(), params.NumChains, params.ChainLen)

	err = mgr.Run(context.Background(), func(p generator.Progress) {
		if status != nil {
			status.SetGenerator(&statusserver.GeneratorStatus{
				TableName:   params.Filename(),
				ChainsDone:  p.ChainsDone,
				ChainsTotal: p.ChainsTotal,
			})
		}
		log.Printf("progress: %d/%d chains", p.ChainsDone, p.ChainsTotal)
	})
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("rtgen: %s complete", params.Filename())

	if cfg.Storage.Enabled {
		publishTable(cfg, params.Filename())
	}
}

// publishTable uploads a finished table to the shared S3 bucket so other
// generator hosts working the same table family see it without a shared
// filesystem.
func publishTable(cfg *config.Config, name string) {
	store, err := tablestore.New(context.Background(), tablestore.Config{
		Endpoint:     cfg.Storage.Endpoint,
		Bucket:       cfg.Storage.Bucket,
		Region:       cfg.Storage.Region,
		UsePathStyle: cfg.Storage.UsePathStyle,
	})
	if err != nil {
		log.Printf("warning: failed to initialize table store: %v", err)
		return
	}
	localPath := filepath.Join(cfg.Generator.OutputDir, name)
	if err := store.UploadTable(context.Background(), localPath, name); err != nil {
		log.Printf("warning: failed to publish %s to S3: %v", name, err)
		return
	}
	log.Printf("rtgen: published %s to s3://%s", name, cfg.Storage.Bucket)
}

func printVersion() {
	fmt.Printf("rtgen %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}
