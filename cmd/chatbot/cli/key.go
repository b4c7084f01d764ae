package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys clients use against the chat API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again; only its salted hash is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate()
		},
	}
	return cmd
}

func runKeyCreate() error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	salt, err := resolveSalt(ctx, st)
	if err != nil {
		return err
	}

	rawKey, err := auth.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	key := &model.APIKey{
		KeyHash:   auth.HashKey(rawKey, salt),
		KeyPrefix: auth.KeyPrefix(rawKey),
		Active:    true,
	}
	if err := st.CreateAPIKey(ctx, key); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Println()
	fmt.Printf("  Key: %s\n", rawKey)
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	fmt.Println("  Use it as: Authorization: Bearer <key>")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys. Use 'chatbot key create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-12s %-8s %s\n", "ID", "PREFIX", "ACTIVE", "CREATED")
	for _, k := range keys {
		active := "yes"
		if !k.Active {
			active = "no"
		}
		fmt.Printf("%-6d %-12s %-8s %s\n", k.ID, k.KeyPrefix, active,
			k.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long:  "Deactivate an API key. Cached validations may succeed for up to an hour afterwards.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}
	return cmd
}

func runKeyRevoke(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.DeactivateAPIKeyByPrefix(context.Background(), prefix); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", prefix)
	return nil
}
