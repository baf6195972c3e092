// Command linactl uploads, downloads and deletes objects on a LiNa store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danmuck/lina/internal/client"
	"github.com/danmuck/lina/internal/config"
	"github.com/danmuck/lina/internal/logging"
	"github.com/danmuck/lina/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linactl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "client config file (TOML)")
	host := fs.String("host", "", "store host (overrides config and env)")
	port := fs.Int("port", 0, "store port (overrides config and env)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: linactl [-config file] [-host h] [-port p] <put|get|delete> [args]")
		fmt.Fprintln(stderr, "  put [-cover] [-compress] FILE...")
		fmt.Fprintln(stderr, "  get [-d DIR] NAME...")
		fmt.Fprintln(stderr, "  delete NAME")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "linactl: %v\n", err)
		return exitFail
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	lc, err := client.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "linactl: %v\n", err)
		return exitFail
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "put":
		err = runPut(ctx, lc, rest, stdout, stderr)
	case "get":
		err = runGet(ctx, lc, rest, stdout, stderr)
	case "delete":
		err = runDelete(ctx, lc, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "linactl: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}
	switch {
	case errors.Is(err, errUsage):
		return exitUsage
	case err != nil:
		fmt.Fprintf(stderr, "linactl: %v\n", err)
		return exitFail
	}
	return exitOK
}

func runPut(ctx context.Context, lc *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cover := fs.Bool("cover", false, "overwrite an existing object")
	compress := fs.Bool("compress", false, "ask the store to compress the object")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: linactl put [-cover] [-compress] FILE...")
		return errUsage
	}

	var opts protocol.Flags
	if *cover {
		opts |= protocol.FlagCover
	}
	if *compress {
		opts |= protocol.FlagCompress
	}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if err := lc.Upload(ctx, name, data, opts); err != nil {
			return err
		}
		log.Debug().Str("object", name).Int("bytes", len(data)).Msg("uploaded")
		fmt.Fprintf(stdout, "put %s (%d bytes)\n", name, len(data))
	}
	return nil
}

func runGet(ctx context.Context, lc *client.Client, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("d", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: linactl get [-d DIR] NAME...")
		return errUsage
	}

	for _, name := range fs.Args() {
		data, err := lc.Download(ctx, name)
		if err != nil {
			return err
		}
		// Object names may carry separators; only the base lands in dir.
		target := filepath.Join(*dir, filepath.Base(name))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "get %s -> %s (%d bytes)\n", name, target, len(data))
	}
	return nil
}

func runDelete(ctx context.Context, lc *client.Client, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: linactl delete NAME")
		return errUsage
	}
	if err := lc.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "delete %s\n", args[0])
	return nil
}
