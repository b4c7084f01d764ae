package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Initialize a default config file and manage settings stored in the local database.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigSetSecretCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default chatbot.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

func runConfigInit(force bool) error {
	path := "chatbot.yaml"
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set azure.endpoint, azure.deployment, and azure.key (or use")
	fmt.Println("'chatbot config set-secret azure.key') to enable remote completions.")
	return nil
}

// ---------- config set ----------

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Store a setting in the local database",
		Example: `  chatbot config set telemetry.enabled false`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
	return cmd
}

func runConfigSet(key, value string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.SetSetting(context.Background(), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	fmt.Printf("Set %s\n", key)
	return nil
}

// ---------- config set-secret ----------

func newConfigSetSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set-secret <key>",
		Short:   "Store a secret setting, prompting without echo",
		Long:    "Like 'config set' but the value is read from a hidden terminal prompt so it never lands in shell history.",
		Example: `  chatbot config set-secret azure.key`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetSecret(args[0])
		},
	}
	return cmd
}

func runConfigSetSecret(key string) error {
	fmt.Printf("Value for %s: ", key)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}
	if len(value) == 0 {
		return fmt.Errorf("empty value")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.SetSetting(context.Background(), key, string(value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	fmt.Printf("Set %s\n", key)
	return nil
}
