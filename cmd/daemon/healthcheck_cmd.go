// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/lipread/internal/platform/httpx"
)

func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	mode := fs.String("mode", "live", "healthcheck mode: live (default) or ready")
	port := fs.Int("port", 8080, "API port to check")
	base := fs.String("url", "", "base URL to check (overrides --port)")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	target := healthcheckURL(*base, *port, *mode)
	client := httpx.NewClient(*timeout)

	resp, err := client.Get(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}

	fmt.Printf("Healthcheck successful (%s)\n", *mode)
	return 0
}

func healthcheckURL(base string, port int, mode string) string {
	path := "/healthz"
	if mode == "ready" {
		path = "/readyz"
	}
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", port)
	}
	return strings.TrimRight(base, "/") + path
}
