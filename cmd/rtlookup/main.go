// Command rtlookup cracks a list of NTLM hashes against the rainbow
// tables in a table directory, reporting and recording confirmed
// plaintexts in a pot file.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/config"
	"github.com/tmto-labs/rainbowforge/internal/ledger"
	"github.com/tmto-labs/rainbowforge/internal/lookup"
	"github.com/tmto-labs/rainbowforge/internal/potfile"
	"github.com/tmto-labs/rainbowforge/internal/statusserver"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
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
		runLookup(os.Args[2:])
	case "version":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Available commands: run, version")
		os.Exit(1)
	}
}

func runLookup(args []string) {
	if len(args) < 2 {
		log.Fatal("usage: rtlookup run <hash_list_file> <sample_table_filename>")
	}
	hashListPath, sampleTable := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	params, err := tableparams.Parse(sampleTable)
	if err != nil {
		log.Fatalf("Failed to parse sample table filename: %v", err)
	}
	if params.HashKind != tableparams.HashNTLM {
		log.Fatalf("rtlookup only supports NTLM tables, got %s", params.HashKind)
	}

	targets, err := loadTargets(hashListPath)
	if err != nil {
		log.Fatalf("Failed to load hash list: %v", err)
	}

	var crackLedger *ledger.Ledger
	if cfg.Database.Enabled {
		crackLedger, err = ledger.New(ledger.Config{
			Hosts:       cfg.Database.Hosts,
			Keyspace:    cfg.Database.Keyspace,
			Consistency: cfg.Database.Consistency,
			LocalDC:     cfg.Database.LocalDC,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
		})
		if err != nil {
			log.Fatalf("Failed to connect to crack ledger: %v", err)
		}
		defer crackLedger.Close()
		targets = skipAlreadyCracked(crackLedger, targets)
	}

	pot, err := potfile.Open(cfg.Lookup.PotFilePath, potfile.FormatHashcat)
	if err != nil {
		log.Fatalf("Failed to open pot file: %v", err)
	}
	defer pot.Close()

	var status *statusserver.Server
	if cfg.Status.Enabled {
		status = statusserver.New(cfg.Status.Port, false)
		status.SetLookup(&statusserver.LookupStatus{TargetsTotal: len(targets)})
		go func() {
			if err := status.Run(); err != nil {
				log.Printf("status server stopped: %v", err)
			}
		}()
	}

	sp := chain.NewSpace(params.Charset, params.MinLen, params.MaxLen, params.TableIndex)
	cache := &lookup.PrecalcCache{Dir: cfg.Lookup.PrecalcCacheDir}

	engine := &lookup.Engine{Backend: compute.CPUBackend{}, Pot: pot, Cache: cache}

	log.Printf("rtlookup %s cracking %d hashes against %s", Version, len(targets), cfg.Lookup.TableDir)

	results, err := engine.Run(context.Background(), sp, params.CharsetName, params.ChainLen,
		cfg.Lookup.TableDir, targets, cfg.Lookup.PreloadQueueDepth)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	cracked := 0
	for _, r := range results {
		if !r.Cracked {
			continue
		}
		cracked++
		fmt.Printf("%s:%s\n", hex.EncodeToString(r.Hash[:]), r.Plaintext)
		if crackLedger != nil {
			if err := crackLedger.RecordCrack("ntlm", r.Hash, string(r.Plaintext), hostnameOrUnknown()); err != nil {
				log.Printf("warning: failed to record crack in ledger: %v", err)
			}
		}
	}
	if status != nil {
		status.SetLookup(&statusserver.LookupStatus{TargetsTotal: len(targets), TargetsCracked: cracked})
	}
	log.Printf("rtlookup: cracked %d/%d hashes", cracked, len(targets))
}

// loadTargets reads one NTLM hash per line, in bare hex or hex:anything
// form, skipping blank lines and '#' comments.
func loadTargets(path string) ([]lookup.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	var targets []lookup.Target
	scanner := bufio.NewScanner(f)
	id := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hexPart, _, _ := strings.Cut(line, ":")
		raw, err := hex.DecodeString(hexPart)
		if err != nil || len(raw) != 16 {
			return nil, fmt.Errorf("line %d: %q is not a 32-character NTLM hash", lineNo, line)
		}
		var h [16]byte
		copy(h[:], raw)
		targets = append(targets, lookup.Target{ID: id, Hash: h})
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

func skipAlreadyCracked(l *ledger.Ledger, targets []lookup.Target) []lookup.Target {
	out := make([]lookup.Target, 0, len(targets))
	for _, t := range targets {
		plaintext, cracked, err := l.IsCracked("ntlm", t.Hash)
		if err != nil {
			log.Printf("warning: ledger lookup failed for %x: %v", t.Hash, err)
			out = append(out, t)
			continue
		}
		if cracked {
			fmt.Printf("%s:%s (from cluster ledger)\n", hex.EncodeToString(t.Hash[:]), plaintext)
			continue
		}
		out = append(out, t)
	}
	return out
}

func hostnameOrUnknown() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func printVersion() {
	fmt.Printf("rtlookup %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}
