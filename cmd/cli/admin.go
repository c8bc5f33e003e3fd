package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/infrastructure/audit"
	"github.com/turtacn/paytrust/internal/infrastructure/consumers"
	"github.com/turtacn/paytrust/internal/infrastructure/kms"
	"github.com/turtacn/paytrust/internal/infrastructure/persistence"
	"github.com/turtacn/paytrust/pkg/logger"
)

const adminTimeout = 30 * time.Second

// ================================================================================
// credential
// ================================================================================

func newCredentialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage partner credentials",
	}

	put := &cobra.Command{
		Use:   "put",
		Short: "Register or replace a partner credential in Vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "client-key"); err != nil {
				return err
			}
			clientKey, _ := cmd.Flags().GetString("client-key")
			secret, _ := cmd.Flags().GetString("secret")
			keyFlag, _ := cmd.Flags().GetString("public-key")
			if secret == "" && keyFlag == "" {
				return fmt.Errorf("--secret or --public-key is required")
			}

			cred := kms.Credential{ClientKey: clientKey, ClientSecret: secret}
			if keyFlag != "" {
				keyPEM, err := readInput(cmd, keyFlag)
				if err != nil {
					return err
				}
				cred.PublicKeyPEM = string(keyPEM)
			}

			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source, err := vaultSource(cfg, log)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()
			if err := source.PutCredential(ctx, cred); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "credential for %s stored\n", clientKey)
			return err
		},
	}
	put.Flags().String("client-key", "", "partner client key")
	put.Flags().String("secret", "", "client secret for symmetric signatures")
	put.Flags().String("public-key", "", "partner PEM public key for asymmetric signatures, or @file")

	check := &cobra.Command{
		Use:   "check <client-key>",
		Short: "Load a partner's key material through the configured source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var source kms.CredentialSource = kms.NewConfigSource(cfg.Signing)
			if cfg.Signing.CredentialSource == "vault" {
				if source, err = vaultSource(cfg, log); err != nil {
					return err
				}
			}
			keyring := kms.NewKeyring(source, 0, log)
			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, rsaErr := keyring.Verifier(ctx, args[0])
			fmt.Fprintf(w, "asymmetric\t%s\n", schemeStatus(rsaErr))
			_, hmacErr := keyring.HMAC(ctx, args[0])
			fmt.Fprintf(w, "symmetric\t%s\n", schemeStatus(hmacErr))
			if err := w.Flush(); err != nil {
				return err
			}
			if stderrors.Is(rsaErr, kms.ErrClientNotFound) {
				return rsaErr
			}
			return nil
		},
	}

	cmd.AddCommand(put, check)
	return cmd
}

func schemeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case stderrors.Is(err, kms.ErrSchemeNotRegistered):
		return "not registered"
	case stderrors.Is(err, kms.ErrClientNotFound):
		return "unknown client"
	default:
		return "error: " + err.Error()
	}
}

func vaultSource(cfg *config.Config, log logger.Logger) (*kms.VaultSource, error) {
	if !cfg.Vault.Enabled {
		return nil, fmt.Errorf("vault is not enabled in the configuration")
	}
	client, err := kms.NewVaultClient(cfg.Vault)
	if err != nil {
		return nil, err
	}
	return kms.NewVaultSource(cfg.Vault, client, log), nil
}

// ================================================================================
// audit
// ================================================================================

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the signature audit trail",
	}

	list := &cobra.Command{
		Use:   "list <client-key>",
		Short: "List recent audit events of a partner and check their seals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("database is not enabled in the configuration")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()
			db, err := persistence.OpenDatabase(ctx, &cfg.Database, log)
			if err != nil {
				return err
			}
			defer persistence.CloseDatabase(db)

			store, err := audit.NewGormAuditService(db)
			if err != nil {
				return err
			}
			events, err := store.ListByClient(ctx, args[0], limit)
			if err != nil {
				return err
			}

			var sealer *audit.Sealer
			if cfg.Audit.SealKey != "" {
				if sealer, err = audit.NewSealer(cfg.Audit.SealKey); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tRESULT\tCODE\tEXTERNAL ID\tSEAL")
			for _, event := range events {
				seal := "unchecked"
				if sealer != nil {
					seal = "ok"
					if err := sealer.VerifyAuditEvent(event); err != nil {
						seal = "TAMPERED"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					event.Timestamp.Format(time.RFC3339), event.EventType, event.Result,
					event.ResponseCode, event.ExternalID, seal)
			}
			return w.Flush()
		},
	}
	list.Flags().Int("limit", 50, "maximum number of events")

	archive := &cobra.Command{
		Use:   "archive",
		Short: "Consume the Kafka audit topic into the database until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 || !cfg.Database.Enabled {
				return fmt.Errorf("archive requires kafka.brokers and database.enabled")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			db, err := persistence.OpenDatabase(ctx, &cfg.Database, log)
			if err != nil {
				return err
			}
			defer persistence.CloseDatabase(db)

			store, err := audit.NewGormAuditService(db)
			if err != nil {
				return err
			}
			var sealer *audit.Sealer
			if cfg.Audit.SealKey != "" {
				if sealer, err = audit.NewSealer(cfg.Audit.SealKey); err != nil {
					return err
				}
			}

			archiver := consumers.NewAuditArchiver(cfg.Kafka, store, sealer, log)
			defer archiver.Close()
			return archiver.Run(ctx)
		},
	}

	cmd.AddCommand(list, archive)
	return cmd
}
