// Package cli implements the deontica command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ksalter/deontica/internal/engine"
	"github.com/ksalter/deontica/internal/model"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deontica",
	Short: "Deontica - deontic logic database for legal research",
	Long: `Deontica converts natural-language legal text into formal deontic-logic
statements (obligations, permissions, prohibitions), stores them durably,
retrieves semantically related statements, flags logical contradictions,
and tracks how later decisions treat earlier ones (shepherding).

Deontica flags conflicts; it never resolves them. Whether a statement is
good law is a question for the researcher, not the tool.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("deontica v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.deontica/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and DEONTICA_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".deontica"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("DEONTICA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment, and flags
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}
	if v := viper.GetDuration("http.timeout"); v > 0 {
		cfg.HTTP.Timeout = v
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := viper.GetInt64("http.max_body_bytes"); v > 0 {
		cfg.HTTP.MaxBodyBytes = v
	}
	if viper.IsSet("http.insecure_tls") {
		cfg.HTTP.InsecureTLS = viper.GetBool("http.insecure_tls")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetDuration("cache.ttl"); v > 0 {
		cfg.Cache.TTL = v
	}
	if v := viper.GetInt("concurrency.ingest_workers"); v > 0 {
		cfg.Concurrency.IngestWorkers = v
	}
	if v := viper.GetFloat64("concurrency.requests_per_second"); v > 0 {
		cfg.Concurrency.RequestsPerSecond = v
	}
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	cfg.Output.Verbose = viper.GetBool("output.verbose")

	return cfg
}

// openEngine opens the engine against the configured store
func openEngine() (*engine.Engine, *model.Config, error) {
	cfg := loadConfig()
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open engine: %w", err)
	}
	return eng, cfg, nil
}

// writeJSON renders v as indented JSON to path, or stdout for "-"
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}
