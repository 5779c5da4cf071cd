// Command secretctl resolves aliases against a secrets lookup endpoint the
// same way the identity server's secret handler does.
//
//	secretctl -url http://localhost:5001/secrets -H 'Authorization: Bearer x' DB_PASSWORD API_KEY
package main

import (
	"context"
	"crypto/x509"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vfraga/wso2-custom-secret-vault/internal/client"
)

type headerFlags map[string]string

func (h headerFlags) String() string { return fmt.Sprint(map[string]string(h)) }

func (h headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("header %q must look like 'Name: value'", v)
	}
	h[name] = strings.TrimSpace(value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := client.DefaultConfig()
	headers := headerFlags{}

	fs := flag.NewFlagSet("secretctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.URL, "url", cfg.URL, "secrets endpoint URL")
	fs.StringVar(&cfg.ResponseKey, "key", cfg.ResponseKey, "JSON member holding the secret in the response")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "connection timeout")
	fs.DurationVar(&cfg.SocketTimeout, "timeout", cfg.SocketTimeout, "response timeout")
	fs.BoolVar(&cfg.DisableHostnameVerification, "no-verify-hostname", false, "accept a certificate issued for another host name (chain is still verified)")
	caFile := fs.String("cacert", "", "PEM file with CA certificates to trust instead of the system roots")
	fs.Var(headers, "H", "extra request header 'Name: value' (repeatable)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: secretctl [flags] alias...")
		fs.PrintDefaults()
		return 2
	}
	cfg.Headers = headers
	if *caFile != "" {
		pool, err := loadCAs(*caFile)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		cfg.RootCAs = pool
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	c := client.New(cfg, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	status := 0
	for _, alias := range fs.Args() {
		secret, err := c.Get(ctx, alias)
		if err != nil {
			logger.Error().Err(err).Str("alias", alias).Msg("lookup failed")
			status = 1
			continue
		}
		fmt.Fprintf(stdout, "%s=%s\n", alias, secret)
	}
	return status
}

func loadCAs(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
