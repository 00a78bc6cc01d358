package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                                  _
	  __ _  ___  ___  ___  ___ ___  _   _| |_
	 / _' |/ _ \/ _ \/ __|/ __/ _ \| | | | __|
	| (_| |  __/ (_) \__ \ (_| (_) | |_| | |_
	 \__, |\___|\___/|___/\___\___/ \__,_|\__|
	 |___/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geoscout",
	Short: "A typed geocaching.com client for your terminal.",
	Long: LOGO + `geoscout searches geocaches, posts logs (with images and trackable
actions), and keeps track of your trackable inventory, right from your
command line. It talks to the geocaching.com web API and expects a valid
authenticated session cookie in your config.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loglevel, _ := cmd.Root().PersistentFlags().GetString("loglevel")
		utils.SetLogLevel(loglevel)

		proxy, _ := cmd.Root().PersistentFlags().GetString("proxy")
		if proxy != "" {
			if err := whttp.SetupProxy(proxy); err != nil {
				utils.Log.Fatal(err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.geoscout.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".geoscout")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		utils.Log.Debug("Using config file: ", viper.ConfigFileUsed())
	}
}
