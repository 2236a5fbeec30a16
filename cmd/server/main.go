package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yourorg/zkvc/internal/api"
	"github.com/yourorg/zkvc/internal/config"
	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/logger"
	"github.com/yourorg/zkvc/internal/metrics"
	"github.com/yourorg/zkvc/internal/prover"
	"github.com/yourorg/zkvc/internal/verifier"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

func main() {
	var (
		envFile    string
		adopt      bool
		setup      bool
		verifyOnly bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve credential proofs over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			l, err := logger.New(cfg.LogLevel, os.Stdout)
			if err != nil {
				return err
			}
			if verifyOnly && setup {
				return errors.New("--setup needs proving keys and cannot be combined with --verify-only")
			}
			return run(cmd.Context(), cfg, l, adopt, setup, verifyOnly)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", ".env", "Environment file")
	cmd.Flags().BoolVar(&adopt, "adopt-identities", false, "Pin whatever identities the key directory yields instead of configured ones")
	cmd.Flags().BoolVar(&setup, "setup", false, "Run the trusted setup for programs without keys")
	cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "Load verifying keys only and serve /receipts/verify without the proving endpoints")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, l zerolog.Logger, adopt, setup, verifyOnly bool) error {
	// -----------------------------------------------------------------
	// Programs and identities
	// -----------------------------------------------------------------
	engine := zkvm.NewEngine(l)
	store := zkvm.NewKeyStore(cfg.KeysDir)
	for _, p := range guest.Programs() {
		var err error
		if verifyOnly {
			_, err = engine.LoadVerifying(p, store)
		} else {
			_, err = engine.Load(p, store, setup)
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", p.Name(), err)
		}
	}

	var (
		reg *identity.Registry
		err error
	)
	switch {
	case cfg.Pinned():
		reg, err = identity.FromHex(cfg.PredicateImageID, cfg.RelationImageID)
	case adopt:
		l.Warn().Msg("adopting identities from the key directory")
		reg, err = identity.FromLoaded(engine.Identities())
	default:
		return fmt.Errorf("set %s and %s, or pass --adopt-identities", config.EnvPredicateImageID, config.EnvRelationImageID)
	}
	if err != nil {
		return err
	}
	if err := reg.Pin(engine.Identities()); err != nil {
		return fmt.Errorf("pinned identities do not match the loaded keys: %w", err)
	}
	for _, e := range reg.All() {
		l.Info().Str("variant", string(e.Variant)).Str("image_id", e.ImageID.String()).Msg("identity pinned")
	}

	// -----------------------------------------------------------------
	// Services
	// -----------------------------------------------------------------
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	var p api.Prover
	if !verifyOnly {
		p = prover.New(engine, reg,
			prover.WithMaxProvers(cfg.MaxProvers),
			prover.WithMetrics(m),
			prover.WithLogger(l),
		)
	}
	v := verifier.New(engine, reg,
		verifier.WithMetrics(m),
		verifier.WithLogger(l),
		verifier.WithTrustedKeys(cfg.TrustedIssuers...),
	)
	h := api.New(p, v, reg, cfg.ProveTimeout, l)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(h, promReg, l),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().
			Str("addr", cfg.Addr).
			Int("max_provers", cfg.MaxProvers).
			Bool("verify_only", verifyOnly).
			Int("trusted_issuers", len(cfg.TrustedIssuers)).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProveTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
