package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accordhq/accord/internal/config"
	"github.com/accordhq/accord/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "accord",
	Short: "Rate-limit-aware client for the Accord chat API",
	Long: `accord talks to the Accord chat API through a dispatcher that tracks
the service's per-route rate limit buckets, queues requests per bucket,
and retries transient failures with backoff.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initLogging() {
	observability.InitCLILogger("accord", verbose)
}

// loadConfig reads the merged configuration for the current invocation.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
