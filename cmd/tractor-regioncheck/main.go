// Package main provides the tractor-regioncheck CLI tool. It consumes the
// reference-flow fact batch the front-end emits for a compilation unit and
// runs the escape checker over it, gating acceptance of the program before
// the region runtime ever executes it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/matthewcrews/tractor-language/internal/escape"
)

const version = "0.2.0"

// factsDocument is the JSON input format: the region forest of the unit
// plus the flow facts to verify. Parent 0 (or omitted) marks a root region.
type factsDocument struct {
	Regions []escape.RegionNode `json:"regions"`
	Facts   []escape.Fact       `json:"facts"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	switch sub {
	case "help", "-h", "--help":
		usage()
	case "version", "-v", "--version":
		fmt.Printf("tractor-regioncheck %s\n", version)
	case "check":
		os.Exit(runCheck(args))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("Usage: tractor-regioncheck <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check -facts <file> [-parallel] [-verbose]   verify reference flows for one compilation unit")
	fmt.Println("  version                                      print tool version")
	fmt.Println("  help                                         show this help")
	fmt.Println()
	fmt.Println("Exit codes: 0 no violations, 1 violations found, 2 input error.")
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	factsPath := fs.String("facts", "", "path to the facts JSON document")
	parallel := fs.Bool("parallel", false, "check independent root subtrees concurrently")
	verbose := fs.Bool("verbose", false, "structured diagnostics on stderr")
	fs.Parse(args)

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if *factsPath == "" {
		fmt.Fprintln(os.Stderr, "check: -facts is required")

		return 2
	}

	raw, err := os.ReadFile(*factsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check: %v\n", err)

		return 2
	}

	var doc factsDocument
	if err := jsoniter.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "check: parse %s: %v\n", *factsPath, err)

		return 2
	}

	tree, err := escape.NewRegionTree(doc.Regions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check: invalid region forest: %v\n", err)

		return 2
	}

	logger.Info().
		Int("regions", tree.Size()).
		Int("facts", len(doc.Facts)).
		Bool("parallel", *parallel).
		Msg("checking compilation unit")

	start := time.Now()

	var violations []escape.Violation
	if *parallel {
		violations, err = escape.CheckParallel(context.Background(), tree, doc.Facts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)

			return 2
		}
	} else {
		violations = escape.Check(tree, doc.Facts)
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("violations", len(violations)).
		Msg("check complete")

	for _, v := range violations {
		fmt.Println(v.String())
	}

	if len(violations) > 0 {
		return 1
	}

	return 0
}
