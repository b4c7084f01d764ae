package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// devAdminSecret is the fallback admin token secret. Override it in any real
// deployment via CHATBOT_AUTH_ADMIN_SECRET or the config file.
const devAdminSecret = "chatbot-dev-secret-change-me"

// resolveDataDir returns the data directory from the --data-dir flag,
// the CHATBOT_DATA_DIR env var, or ~/.chatbot as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("CHATBOT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.chatbot"
}

// openStore opens the SQLite store under the resolved data directory.
func openStore() (*store.Store, error) {
	return store.New(resolveDataDir())
}

// resolveSalt returns the key hashing salt. Config and environment win; when
// neither is set a salt is generated once and persisted so keys minted across
// restarts keep verifying.
func resolveSalt(ctx context.Context, st *store.Store) (string, error) {
	if salt := viper.GetString("auth.key_salt"); salt != "" {
		return salt, nil
	}
	if salt, err := st.GetSetting(ctx, "key_salt"); err == nil && salt != "" {
		return salt, nil
	}
	salt, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	if err := st.SetSetting(ctx, "key_salt", salt); err != nil {
		return "", fmt.Errorf("persist salt: %w", err)
	}
	return salt, nil
}

// resolveAdminSecret returns the secret used to sign admin tokens.
func resolveAdminSecret() string {
	if secret := viper.GetString("auth.admin_secret"); secret != "" {
		return secret
	}
	return devAdminSecret
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
