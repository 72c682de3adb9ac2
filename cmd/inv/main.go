package main

import (
	"flag"
	"fmt"
	"os"

	"inv/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	apiBase := flag.String("api", "", "item service base URL (overrides INV_API_BASE_URL)")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		BaseURL: *apiBase,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
