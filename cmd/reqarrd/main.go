// Command reqarrd is the request orchestration daemon.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/vmunix/reqarr/internal/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search standard locations)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reqarrd %s\n", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			var nf *config.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintf(os.Stderr, "run 'reqarr init' to create %s, or pass -config\n", config.DefaultPath())
			}
			os.Exit(1)
		}
		path = found
	}

	if err := runServer(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, config.ErrInvalid) {
			fmt.Fprintln(os.Stderr, "compare with a fresh example: reqarr init /tmp/reqarr.toml")
		}
		os.Exit(1)
	}
}
