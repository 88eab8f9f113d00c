// Command rtverify certifies a table file's structural and cryptographic
// integrity in Generated, Lookup, or Quick mode.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/verifier"
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
		fmt.Println("usage: rtverify <path> [generated|lookup|quick]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		printVersion()
	default:
		runVerify(os.Args[1:])
	}
}

func runVerify(args []string) {
	path := args[0]
	mode := verifier.ModeLookup
	if len(args) > 1 {
		switch args[1] {
		case "generated":
			mode = verifier.ModeGenerated
		case "lookup":
			mode = verifier.ModeLookup
		case "quick":
			mode = verifier.ModeQuick
		default:
			log.Fatalf("unknown mode %q (want generated, lookup, or quick)", args[1])
		}
	}

	params, err := tableparams.Parse(path)
	if err != nil {
		log.Fatalf("Failed to parse table filename: %v", err)
	}

	res, err := verifier.VerifyFile(path, params, verifier.Options{Mode: mode})
	if err != nil {
		log.Fatalf("Verification errored: %v", err)
	}

	if res.OK {
		fmt.Printf("OK: %s (%d chains checked)\n", path, res.ChainsChecked)
		return
	}

	if res.StructuralError != nil {
		fmt.Printf("STRUCTURAL FAILURE: %s: %v\n", path, res.StructuralError)
		if res.TruncatedAt >= 0 {
			fmt.Printf("  would truncate at chain %d\n", res.TruncatedAt)
		}
	}
	if res.MismatchError != nil {
		fmt.Printf("CHAIN MISMATCH: %s: %v\n", path, res.MismatchError)
	}
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("rtverify %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}
