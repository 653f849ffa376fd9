// Command safewallet is a small console harness around the library: it signs
// in with an access token from the environment, prints the ledger state, and
// optionally resolves one exchange rate. Useful for poking a real Supabase
// project without a UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kislikjeka/safewallet"
	"github.com/kislikjeka/safewallet/pkg/config"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)

	client, err := safewallet.New(cfg, log)
	if err != nil {
		log.Error("Failed to build client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if token := os.Getenv("ACCESS_TOKEN"); token != "" {
		if err := client.SignIn(ctx, token); err != nil {
			log.Error("Sign-in failed", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("identity: %s\n", client.Ledger.Identity())
	fmt.Printf("ceiling:  %s\n", formatCeiling(client))
	fmt.Printf("total:    %s\n", client.Ledger.Total())

	for _, rec := range client.Ledger.Records() {
		fmt.Printf("  %-38s %-20s %-12s %s\n", rec.ID, rec.Label, rec.Category, rec.Amount)
	}

	// safewallet BASE TARGET resolves one rate through the provider chain
	if len(os.Args) == 3 {
		rate, err := client.Rates.GetRate(ctx, os.Args[1], os.Args[2])
		if err != nil {
			log.Error("Rate resolution failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s/%s = %s\n", os.Args[1], os.Args[2], rate)
	}
}

func formatCeiling(client *safewallet.Client) string {
	ceiling, ok := client.Ledger.Ceiling()
	if !ok {
		return "unlimited"
	}
	return ceiling.String()
}
