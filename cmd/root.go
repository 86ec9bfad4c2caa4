package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kolist/cmd/demo"
	"github.com/ValentinKolb/kolist/cmd/perf"
	"github.com/ValentinKolb/kolist/cmd/util"
	"github.com/ValentinKolb/kolist/lib/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kolist",
		Short: "observable keyed list",
		Long: fmt.Sprintf(`kolist (v%s)

An ordered, thread-safe list indexed by position and by key, raising one
change notification for every mutation.`, Version),
		PersistentPreRunE: setupLogging,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kolist",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kolist v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(demo.DemoCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("log level of the klist, observe and cli loggers (debug, info, warn, error)"))
}

// setupLogging binds the flags of the executed command and installs the loggers
func setupLogging(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return fmt.Errorf("configuring loggers: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
