package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Incremental static blog compiler",
	Long:          "folio compiles a directory of Markdown posts into a website and only rebuilds what changed.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var be *folio.BuildError
		if !errors.As(err, &be) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default ./folio.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(buildCmd, watchCmd, serveCmd, newCmd, initCmd, versionCmd)
}

// configErr holds the failure of the last config read, reported by newApp.
var configErr error

func initConfig() {
	// A local .env is optional.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configErr = readConfig(viper.GetViper(), cfgFile)
}

// readConfig loads defaults, FOLIO_* environment variables and the config
// file into v. Without an explicit file a missing ./folio.yaml is fine; a
// file that exists but cannot be parsed is always an error.
func readConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("folio")
		v.AddConfigPath(".")
	}

	def := folio.DefaultConfig()
	v.SetDefault("name", def.Name)
	v.SetDefault("url", def.URL)
	v.SetDefault("description", def.Description)
	v.SetDefault("author", def.Author)
	v.SetDefault("input_dir", def.InputDir)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("static_dir", def.StaticDir)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("cache.codec", def.Cache.Codec)
	v.SetDefault("cache.reset_on_corrupt", def.Cache.ResetOnCorrupt)
	v.SetDefault("images.max_width", def.Images.MaxWidth)
	v.SetDefault("index_size", def.IndexSize)
	v.SetDefault("minify", def.Minify)
	v.SetDefault("addr", def.Addr)

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// newApp builds the App from the merged configuration.
func newApp(cmd *cobra.Command, opts ...folio.Option) (*folio.App, error) {
	if configErr != nil {
		return nil, configErr
	}
	var cfg folio.SiteConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	logger := newLogger(cmd)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	opts = append([]folio.Option{folio.WithLogger(logger)}, opts...)
	return folio.New(cfg, opts...), nil
}
