package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yourorg/zkvc/internal/config"
	"github.com/yourorg/zkvc/internal/demo"
	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/logger"
	"github.com/yourorg/zkvc/internal/prover"
	"github.com/yourorg/zkvc/internal/verifier"
	"github.com/yourorg/zkvc/pkg/credential"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// contextKey is a custom type for context keys to avoid conflicts
type contextKey string

const startTimeKey contextKey = "start"

func main() {
	var (
		keysDir  string
		dataPath string
		outPath  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "prover",
		Short: "Prove statements about verifiable credentials",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keys") {
				keysDir = cfg.KeysDir
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = cfg.LogLevel
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&keysDir, "keys", "./keys", "Proving and verifying key directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level")

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the trusted setup for every program and print the image ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadEngine(logger.Console(logLevel), keysDir)
			if err != nil {
				return err
			}
			for _, name := range engine.Names() {
				fmt.Printf("%-10s %s\n", name, engine.Identities()[name])
			}
			return nil
		},
	}

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a demo document with freshly issued credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := demo.Generate(demo.Options{})
			if err != nil {
				return err
			}
			if err := doc.Write(outPath); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	sampleCmd.Flags().StringVar(&outPath, "out", "data.json", "Output file")

	predicateCmd := &cobra.Command{
		Use:   "predicate",
		Short: "Prove the age predicates over the person credential of a demo document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := demo.Read(dataPath)
			if err != nil {
				return err
			}
			key, err := doc.EIDIssuer.Key()
			if err != nil {
				return fmt.Errorf("eidIssuer: %w", err)
			}
			svc, v, err := services(logger.Console(logLevel), keysDir)
			if err != nil {
				return err
			}

			receipt, err := svc.ProvePredicates(cmd.Context(), prover.PredicateRequest{
				Token:      doc.PersonCredential.Proof.JWT,
				IssuerKey:  key,
				Predicates: demo.AgePredicates(),
			})
			if err != nil {
				return err
			}
			c, err := v.VerifyPredicate(cmd.Context(), receipt)
			if err != nil {
				return err
			}

			fmt.Printf("issuer:  %s\n", c.Issuer)
			fmt.Printf("subject: %s\n", c.Subject)
			for _, d := range c.Disclosures {
				fmt.Printf("  - %s\n", d)
			}
			return writeReceipt(cmd.Context(), receipt, outPath)
		},
	}

	bidCmd := &cobra.Command{
		Use:   "bid",
		Short: "Prove that the demo bid is covered by the approved loan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := demo.Read(dataPath)
			if err != nil {
				return err
			}
			req, err := doc.RelationRequest(credential.DefaultApprovedField)
			if err != nil {
				return err
			}
			svc, v, err := services(logger.Console(logLevel), keysDir)
			if err != nil {
				return err
			}

			receipt, err := svc.ProveRelation(cmd.Context(), req)
			if err != nil {
				return err
			}
			c, err := v.VerifyRelation(cmd.Context(), receipt)
			if err != nil {
				return err
			}

			fmt.Printf("subject: %s\n", c.SubjectID)
			fmt.Printf("bid:     %d\n", c.Amount)
			fmt.Printf("valid:   %t\n", c.IsValid)
			return writeReceipt(cmd.Context(), receipt, outPath)
		},
	}

	for _, c := range []*cobra.Command{predicateCmd, bidCmd} {
		c.Flags().StringVar(&dataPath, "data", "data.json", "Demo document")
		c.Flags().StringVar(&outPath, "out", "receipt.cbor", "Receipt output file")
	}

	rootCmd.AddCommand(setupCmd, sampleCmd, predicateCmd, bidCmd)
	rootCmd.SetContext(context.WithValue(context.Background(), startTimeKey, time.Now()))
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadEngine reads the keys in dir, running the setup for programs whose keys
// are missing or stale.
func loadEngine(log zerolog.Logger, dir string) (*zkvm.Engine, error) {
	engine := zkvm.NewEngine(log)
	store := zkvm.NewKeyStore(dir)
	for _, p := range guest.Programs() {
		if _, err := engine.Load(p, store, true); err != nil {
			return nil, fmt.Errorf("load %s: %w", p.Name(), err)
		}
	}
	return engine, nil
}

// services pins the identities of the local keys; the prover trusts its own
// key directory.
func services(log zerolog.Logger, dir string) (*prover.Service, *verifier.Verifier, error) {
	engine, err := loadEngine(log, dir)
	if err != nil {
		return nil, nil, err
	}
	reg, err := identity.FromLoaded(engine.Identities())
	if err != nil {
		return nil, nil, err
	}
	return prover.New(engine, reg, prover.WithLogger(log)),
		verifier.New(engine, reg, verifier.WithLogger(log)),
		nil
}

func writeReceipt(ctx context.Context, r *zkvm.Receipt, path string) error {
	raw, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("image:   %s\n", r.ImageID)
	fmt.Printf("receipt: %s (%d bytes)\n", path, len(raw))
	fmt.Printf("proof done in %s\n", time.Since(ctx.Value(startTimeKey).(time.Time)))
	return nil
}
