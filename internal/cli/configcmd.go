package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-etl-ops/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change persisted configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show resolved configuration",
	Long:  `Display the configuration after resolving flags, environment, config file, and defaults.`,
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := config.Display()
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one configuration key",
	Long: `Write a single key to the config file. Supported keys: project,
environment, region, outputs-file, secret-name, check-timeout,
password-length, password-require-{lower,upper,digit,symbol}.`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		color.Green("✓ %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
