package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/chat"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/completion"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/config"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/gate"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/ratelimit"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/server"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		host  string
		local bool
		dev   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long:  "Start the HTTP server that forwards prompts to Azure OpenAI (or the local mock provider) and persists conversation history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, local, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&local, "local", false, "Force local mode (mock replies, no Azure calls)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, local, dev bool) error {
	ctx := context.Background()

	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, dev)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "path", resolveDataDir())

	salt, err := resolveSalt(ctx, st)
	if err != nil {
		return err
	}

	// Secrets set via `chatbot config set-secret azure.key` fill in for a
	// blank config value.
	if cfg.Azure.Key == "" {
		if v, err := st.GetSetting(ctx, "azure.key"); err == nil {
			cfg.Azure.Key = v
		}
	}

	azureCfg := completion.AzureConfig{
		Endpoint:   cfg.Azure.Endpoint,
		Key:        cfg.Azure.Key,
		Deployment: cfg.Azure.Deployment,
		Timeout:    config.ParseDuration(cfg.Azure.Timeout, 15*time.Second),
		MaxTokens:  cfg.Azure.MaxTokens,
	}

	var provider completion.Provider
	switch {
	case local || cfg.Azure.LocalMode:
		provider = completion.NewMock()
		logger.Info("local mode forced, using mock provider")
	case !azureCfg.Configured():
		provider = completion.NewMock()
		logger.Warn("azure not configured, falling back to mock provider")
	default:
		provider = completion.NewAzure(azureCfg)
		logger.Info("azure provider configured", "deployment", cfg.Azure.Deployment)
	}

	validator := auth.NewValidator(st, salt, logger)
	limiter := ratelimit.New(cfg.RateLimit.Requests,
		config.ParseDuration(cfg.RateLimit.Window, time.Hour))
	g := gate.New(validator, limiter)
	chatSvc := chat.New(st, provider, logger)
	admin := auth.NewAdminAuth(resolveAdminSecret())

	tracker := telemetry.New(ctx, st, func() telemetry.Properties {
		sessions, messages, keys, _ := st.Counts(context.Background())
		return telemetry.Properties{
			Version:   appVersion,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Provider:  provider.Name(),
			LocalMode: provider.Name() == "local",
			Sessions:  sessions,
			Messages:  messages,
			APIKeys:   keys,
		}
	})
	tracker.Start()
	defer tracker.Shutdown()

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: config.ParseDuration(cfg.Server.ShutdownTimeout, 30*time.Second),
		CORSOrigins:     cfg.Server.CORS.Origins,
		KeygenPerIP:     cfg.RateLimit.KeygenPerIP,
		KeygenWindow:    time.Minute,
		AzureConfigured: azureCfg.Configured(),
	}
	srv := server.New(srvCfg, chatSvc, g, st, validator, admin, logger)

	fmt.Printf("chatbot %s\n", versionString())
	fmt.Printf("  listening:  http://%s:%d\n", host, port)
	fmt.Printf("  health:     http://%s:%d/health\n", host, port)
	fmt.Printf("  provider:   %s\n", provider.Name())
	fmt.Printf("  rate limit: %d requests per %s\n", limiter.Limit(), limiter.Window())
	fmt.Println()

	return srv.ListenAndServe()
}

// loadServeConfig resolves the effective config: defaults, then the config
// file viper located, then environment overrides.
func loadServeConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := viper.GetString("azure.endpoint"); v != "" {
		cfg.Azure.Endpoint = v
	}
	if v := viper.GetString("azure.key"); v != "" {
		cfg.Azure.Key = v
	}
	if v := viper.GetString("azure.deployment"); v != "" {
		cfg.Azure.Deployment = v
	}
	if viper.GetBool("azure.local_mode") {
		cfg.Azure.LocalMode = true
	}
	if v := viper.GetInt("rate_limit.requests"); v > 0 {
		cfg.RateLimit.Requests = v
	}
	if v := viper.GetString("rate_limit.window"); v != "" {
		cfg.RateLimit.Window = v
	}

	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
