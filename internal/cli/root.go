// Package cli wires the cobra command tree for etl-ops.
//
// Commands parse flags, load config, delegate to the domain packages, and
// format results. Domain packages never print; everything user-visible
// happens here.
package cli

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/gcp-etl-ops/internal/operr"
)

var rootCmd = &cobra.Command{
	Use:   "etl-ops",
	Short: "Operate the GCP ETL stack",
	Long: `etl-ops manages the credential lifecycle and validates the deployment
of the GCP ETL stack (GCS, Cloud SQL, Dataproc, BigQuery, Composer).

Credentials live in Secret Manager as immutable, append-only versions.
Validation is a read-only checklist against the provisioned resources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// usageError marks a bad invocation so main can exit with code 2.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

// usageArgs wraps a cobra positional-args validator so its error is
// reported as a usage error.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// Execute runs the root command and prints any resulting error.
func Execute(version string) error {
	rootCmd.Version = version

	err := rootCmd.Execute()
	// Unmatched subcommands come back as plain errors; flag and arg errors
	// are already wrapped via SetFlagErrorFunc and usageArgs.
	if err != nil && strings.HasPrefix(err.Error(), "unknown command ") {
		err = usageError{err}
	}
	if err != nil {
		var ue usageError
		var oe *operr.Error
		switch {
		case errors.As(err, &ue):
			color.Red("✗ %v", err)
			color.Yellow("Run 'etl-ops --help' for usage")
		case errors.As(err, &oe):
			color.Red("✗ %v", oe)
			if oe.Kind == operr.KindTransient {
				color.Yellow("The failure looks transient; retrying may succeed")
			}
		default:
			color.Red("✗ %v", err)
		}
	}
	return err
}

// ExitCode maps an Execute error to the process exit code:
// 0 success, 1 operational failure, 2 usage error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	// Define persistent flags
	rootCmd.PersistentFlags().StringP("project", "p", "", "GCP project ID")
	rootCmd.PersistentFlags().StringP("environment", "e", "", "Deployment environment (dev|staging|prod)")
	rootCmd.PersistentFlags().String("region", "", "GCP region of the stack")
	rootCmd.PersistentFlags().String("outputs-file", "", "Path to the terraform outputs file")

	// Bind flags to viper
	viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	viper.BindPFlag("environment", rootCmd.PersistentFlags().Lookup("environment"))
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("outputs-file", rootCmd.PersistentFlags().Lookup("outputs-file"))

	rootCmd.AddCommand(getPasswordCmd)
	rootCmd.AddCommand(updatePasswordCmd)
	rootCmd.AddCommand(rotatePasswordCmd)
	rootCmd.AddCommand(listVersionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
