package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourorg/zkvc/internal/config"
	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/logger"
	"github.com/yourorg/zkvc/internal/verifier"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

func main() {
	var receiptPath, keysDir, variantS, imageIDS, trustedS string

	cmd := &cobra.Command{
		Use:   "verifier",
		Short: "Verify a receipt against a pinned program identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keys") {
				keysDir = cfg.KeysDir
			}
			l := logger.Console(cfg.LogLevel)

			variant, err := identity.ParseVariant(variantS)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(receiptPath)
			if err != nil {
				return err
			}
			receipt, err := zkvm.UnmarshalReceipt(raw)
			if err != nil {
				return err
			}

			trusted := cfg.TrustedIssuers
			if cmd.Flags().Changed("trusted-issuer-keys") {
				if trusted, err = config.ParseKeys(trustedS); err != nil {
					return fmt.Errorf("--trusted-issuer-keys: %w", err)
				}
			}

			// verifying keys only; a missing key is an error, never a setup
			engine := zkvm.NewEngine(l)
			store := zkvm.NewKeyStore(keysDir)
			for _, p := range guest.Programs() {
				if _, err := engine.LoadVerifying(p, store); err != nil {
					return fmt.Errorf("load %s: %w", p.Name(), err)
				}
			}

			var reg *identity.Registry
			if cfg.Pinned() {
				reg, err = identity.FromHex(cfg.PredicateImageID, cfg.RelationImageID)
			} else {
				reg, err = identity.FromLoaded(engine.Identities())
			}
			if err != nil {
				return err
			}
			if imageIDS != "" {
				want, err := zkvm.ParseImageID(imageIDS)
				if err != nil {
					return err
				}
				pinned, _ := reg.Expected(variant)
				if want != pinned {
					return fmt.Errorf("--image-id %s does not match the %s identity %s", want, variant, pinned)
				}
			}

			v := verifier.New(engine, reg, verifier.WithLogger(l), verifier.WithTrustedKeys(trusted...))
			c, err := v.Verify(cmd.Context(), variant, receipt)
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			switch variant {
			case identity.Predicate:
				fmt.Printf("issuer:  %s\n", c.Predicate.Issuer)
				fmt.Printf("subject: %s\n", c.Predicate.Subject)
				fmt.Printf("key:     %s\n", c.Predicate.IssuerKey)
				for _, d := range c.Predicate.Disclosures {
					fmt.Printf("  - %s\n", d)
				}
			case identity.Relation:
				fmt.Printf("subject: %s\n", c.Relation.SubjectID)
				fmt.Printf("bid:     %d\n", c.Relation.Amount)
				fmt.Printf("valid:   %t\n", c.Relation.IsValid)
				fmt.Printf("eid key: %s\n", c.Relation.SubjectKey)
				fmt.Printf("bank:    %s\n", c.Relation.ApprovalKey)
			}
			fmt.Println("receipt verified ✅")
			return nil
		},
	}

	cmd.Flags().StringVar(&receiptPath, "receipt", "", "receipt.cbor")
	cmd.Flags().StringVar(&keysDir, "keys", "./keys", "Key directory")
	cmd.Flags().StringVar(&variantS, "variant", "predicate", "predicate or relation")
	cmd.Flags().StringVar(&imageIDS, "image-id", "", "Expected image id (hex)")
	cmd.Flags().StringVar(&trustedS, "trusted-issuer-keys", "", "Comma-separated issuer keys to accept (hex)")
	_ = cmd.MarkFlagRequired("receipt")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
