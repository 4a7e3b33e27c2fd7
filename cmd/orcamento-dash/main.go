package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"orcamento/internal/cli"
	"orcamento/internal/client"
	"orcamento/internal/log"
	"orcamento/internal/mirror"
)

var (
	cfgFile string
	logger  = log.Discard()
	rootCmd = &cobra.Command{
		Use:   "orcamento-dash",
		Short: "Terminal dashboard for the orcamento API",
		Long: `orcamento-dash shows spending summaries, expenses and budgets from the
orcamento API. When the API cannot be reached it falls back to the last
copy it saved locally.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/orcamento/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("api_url", "http://localhost:8080")
	viper.SetDefault("timeout", 10*time.Second)

	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(expensesCmd())
	rootCmd.AddCommand(budgetsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "orcamento"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.SetDefault("cache_path", filepath.Join(home, ".local", "share", "orcamento", "snapshot.json"))
	}

	viper.SetEnvPrefix("ORCAMENTO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(viper.GetString("log_level"))
	lc.Output = os.Stderr
	logger = log.New(lc)
	log.SetDefault(logger)
	return nil
}

// newMirror builds the API client and mirror from the loaded config.
func newMirror() (*mirror.Mirror, error) {
	api, err := client.New(viper.GetString("api_url"), client.WithTimeout(viper.GetDuration("timeout")))
	if err != nil {
		return nil, err
	}

	cachePath := viper.GetString("cache_path")
	if cachePath == "" {
		return nil, errors.New("cache_path is not set")
	}

	return mirror.New(api, mirror.NewLocal(os.ExpandEnv(cachePath)),
		mirror.WithLogger(logger),
		mirror.WithWriteTimeout(viper.GetDuration("timeout"))), nil
}

// awaitWrite waits for a background write and reports its outcome. The
// local change stays either way.
func awaitWrite(m *mirror.Mirror, done <-chan error, what string) {
	err := <-done
	m.Wait()
	switch {
	case err == nil:
		fmt.Println(cli.FormatSuccess(what))
	case errors.Is(err, client.ErrUnreachable):
		fmt.Println(cli.FormatWarning(what + " (local copy only, the API is unreachable)"))
	default:
		fmt.Println(cli.FormatWarning(what + " (local copy only, the API rejected it: " + err.Error() + ")"))
	}
}
