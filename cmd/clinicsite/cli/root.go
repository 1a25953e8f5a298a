package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicsite/clinicsite/internal/config"
)

var (
	cfgFile    string
	logLevel   string
	appVersion string // set in Execute, reported by serve and mcp
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinicsite",
		Short: "Backend for the clinic marketing site",
		Long: `clinicsite serves the clinic website's backend: the CAPTCHA-protected contact
form, the admin login and submissions listing, and read-only access to the
site's content.

Configuration comes from ./clinicsite.yaml (or --config), CLINIC_* environment
variables and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./clinicsite.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newSubmissionsCmd())
	cmd.AddCommand(newContentCmd())
	cmd.AddCommand(newSitemapCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clinicsite")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.clinicsite")
	}

	viper.ReadInConfig() // Ignore error - config file is optional

	if logLevel != "" {
		viper.Set("log.level", logLevel)
	}
}
