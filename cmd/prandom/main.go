package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/TheusHen/prandom/prandom"
	"github.com/TheusHen/prandom/prandom/keystream"
	"github.com/TheusHen/prandom/prandom/server"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type params struct {
	device   string
	count    int
	output   string
	hex      bool
	digest   bool
	serve    string
	remote   string
	atomic   bool
	logLevel string
}

func newFlagSet(p *params) *pflag.FlagSet {
	fs := pflag.NewFlagSet("prandom", pflag.ContinueOnError)
	fs.StringVarP(&p.device, "device", "d", "urandom", "Access point to read (random or urandom)")
	fs.IntVarP(&p.count, "count", "n", 16, "Number of bytes to read")
	fs.StringVarP(&p.output, "output", "o", "", "Output file (default stdout)")
	fs.BoolVarP(&p.hex, "hex", "x", false, "Write bytes as hex")
	fs.BoolVar(&p.digest, "digest", false, "Print the BLAKE2b-256 digest of the bytes instead of the bytes")
	fs.StringVar(&p.serve, "serve", "", "Serve the device over QUIC on this address")
	fs.StringVarP(&p.remote, "remote", "r", "", "Read from a device served at this address")
	fs.BoolVar(&p.atomic, "atomic", false, "Hold the engine for a whole request")
	fs.StringVar(&p.logLevel, "log-level", "WARNING", "Log level (ERROR, WARNING, INFO, DEBUG)")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var p params
	fs := newFlagSet(&p)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	if p.count < 0 {
		return errors.New("--count: must not be negative")
	}
	if err := prandom.SetupLogging(stderr, p.logLevel); err != nil {
		return errors.Wrap(err, "--log-level")
	}

	minor, err := server.ParseMinor(p.device)
	if err != nil {
		return errors.Wrapf(err, "--device %q", p.device)
	}

	cfg := prandom.DefaultConfig()
	cfg.Atomic = p.atomic

	if p.serve != "" {
		return serve(ctx, cfg, p.serve, stderr)
	}

	var src io.Reader
	if p.remote != "" {
		data, err := fetch(ctx, cfg, p.remote, minor, p.count)
		if err != nil {
			return err
		}
		src = bytes.NewReader(data)
	} else {
		dev, err := prandom.NewDevice(cfg)
		if err != nil {
			return err
		}
		h, err := dev.Open(minor.String())
		if err != nil {
			return err
		}
		src = h
	}

	out := stdout
	if p.output != "" {
		f, err := os.Create(p.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if p.digest {
		sum, err := keystream.Digest(src, int64(p.count))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%x\n", sum)
		return err
	}
	return dump(out, src, p.count, p.hex)
}

func dump(w io.Writer, src io.Reader, n int, asHex bool) error {
	if asHex {
		enc := hex.NewEncoder(w)
		if _, err := io.CopyN(enc, src, int64(n)); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
	_, err := io.CopyN(w, src, int64(n))
	return err
}

func fetch(ctx context.Context, cfg prandom.Config, addr string, m server.Minor, n int) ([]byte, error) {
	client, err := prandom.Dial(ctx, addr, cfg.MaxStreams)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	out := make([]byte, 0, n)
	for len(out) < n {
		chunk := n - len(out)
		if chunk > cfg.MaxRequest {
			chunk = cfg.MaxRequest
		}
		b, err := client.Read(ctx, m, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func serve(ctx context.Context, cfg prandom.Config, addr string, stderr io.Writer) error {
	dev, err := prandom.NewDevice(cfg)
	if err != nil {
		return err
	}
	if err := dev.Listen(addr); err != nil {
		return err
	}
	defer dev.Close()
	fmt.Fprintf(stderr, "serving on %s\n", dev.ListenAddr())

	err = dev.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "prandom: %v\n", err)
		os.Exit(1)
	}
}
