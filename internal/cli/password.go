package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-etl-ops/internal/config"
	"github.com/blackwell-systems/gcp-etl-ops/internal/secrets"
)

// withManager loads config, dials Secret Manager, and hands the command a
// ready lifecycle manager. The connection is closed when fn returns.
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *secrets.Manager) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := secrets.NewGCPStore(ctx, cfg.Project)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, secrets.NewManager(store, cfg.SecretName, cfg.Environment, cfg.Password))
}

// note prints a status line to stderr so secret payloads on stdout stay
// pipeable.
func note(c *color.Color, format string, args ...any) {
	c.Fprintf(color.Error, format+"\n", args...)
}

var getPasswordCmd = &cobra.Command{
	Use:   "get-password",
	Short: "Print the current database password",
	Long: `Fetch the latest version of the environment's SQL password from
Secret Manager and print it to stdout.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *secrets.Manager) error {
			value, err := m.GetPassword(ctx)
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		})
	},
}

var updatePasswordCmd = &cobra.Command{
	Use:   "update-password <value>",
	Short: "Store a new database password version",
	Long: `Append a new version holding the given value. History is immutable:
repeated updates with the same value still create new versions.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *secrets.Manager) error {
			ver, err := m.UpdatePassword(ctx, args[0])
			if err != nil {
				return err
			}
			note(color.New(color.FgGreen), "✓ %s: added version %s", m.SecretID(), ver.ID)
			return nil
		})
	},
}

var rotatePasswordCmd = &cobra.Command{
	Use:   "rotate-password",
	Short: "Generate and store a new database password",
	Long: `Generate a fresh random password per the configured policy and store
it as a new version. The new value is printed to stdout exactly once;
it is not retrievable from this tool's output afterwards.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *secrets.Manager) error {
			value, ver, err := m.RotatePassword(ctx)
			if err != nil {
				return err
			}
			note(color.New(color.FgGreen), "✓ %s: rotated, version %s", m.SecretID(), ver.ID)
			fmt.Println(value)
			return nil
		})
	},
}

var listVersionsCmd = &cobra.Command{
	Use:   "list-versions",
	Short: "List stored password versions",
	Long:  `List every version of the environment's SQL password in creation order.`,
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "json" {
			return usageError{fmt.Errorf("invalid --format %q (must be text or json)", format)}
		}

		return withManager(cmd, func(ctx context.Context, m *secrets.Manager) error {
			var versions []secrets.Version
			for v, err := range m.Versions(ctx) {
				if err != nil {
					return err
				}
				versions = append(versions, v)
			}
			return renderVersions(os.Stdout, m.SecretID(), versions, format)
		})
	},
}

// renderVersions writes the version listing in the requested format.
func renderVersions(w io.Writer, secretID string, versions []secrets.Version, format string) error {
	if format == "json" {
		if versions == nil {
			versions = []secrets.Version{} // [] rather than null for CI consumers
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(versions)
	}

	cyan := color.New(color.FgCyan)
	cyan.Fprintf(w, "Secret: %s\n", secretID)
	cyan.Fprintln(w, "VERSION  STATE      CREATED")
	cyan.Fprintln(w, "────────────────────────────────────────")
	for _, v := range versions {
		fmt.Fprintf(w, "%-8s %-10s %s\n", v.ID, v.State, v.Created.UTC().Format(time.RFC3339))
	}
	if len(versions) == 0 {
		color.New(color.FgYellow).Fprintln(w, "(no versions)")
	}
	return nil
}

func init() {
	listVersionsCmd.Flags().String("format", "text", "Output format (text|json)")
}
