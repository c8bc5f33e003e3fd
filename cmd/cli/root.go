package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/infrastructure/monitoring"
	"github.com/turtacn/paytrust/pkg/logger"
)

// NewRootCommand builds the `paytrust-admin` command tree.
// NewRootCommand 构建 `paytrust-admin` 命令树。
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "paytrust-admin",
		Short: "A CLI tool for the PayTrust SNAP signature gateway.",
		Long: `paytrust-admin signs and verifies SNAP request signatures offline, explains
response codes and envelopes, and manages partner credentials and audit records.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to the gateway configuration file")

	root.AddCommand(
		newSignCommand(),
		newVerifyCommand(),
		newCodeCommand(),
		newEnvelopeCommand(),
		newCredentialCommand(),
		newAuditCommand(),
	)
	return root
}

// Execute is the main entry point for the CLI application.
// Execute 是 CLI 应用程序的主入口点。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config together with environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.NewLoader(logger.NewNoopLogger()).Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// readInput returns the literal value, or the file contents when the value
// starts with '@'. "@-" reads stdin.
func readInput(cmd *cobra.Command, value string) ([]byte, error) {
	if !strings.HasPrefix(value, "@") {
		return []byte(value), nil
	}
	name := strings.TrimPrefix(value, "@")
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func requireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if v, _ := cmd.Flags().GetString(name); v == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}
