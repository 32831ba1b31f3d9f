package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-etl-ops/internal/config"
	"github.com/blackwell-systems/gcp-etl-ops/internal/outputs"
	"github.com/blackwell-systems/gcp-etl-ops/internal/secrets"
	"github.com/blackwell-systems/gcp-etl-ops/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the deployed ETL stack",
	Long: `Run a read-only checklist against the provisioned resources: terraform
outputs, GCS buckets, the SQL password secret, the Cloud SQL instance,
the Dataproc cluster, the BigQuery dataset, and the Composer environment.

Every check runs regardless of earlier failures. The command exits
non-zero when any check fails; skipped checks do not count.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "json" {
			return usageError{fmt.Errorf("invalid --format %q (must be text or json)", format)}
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out, err := outputs.Load(cfg.OutputsFile)
		if err != nil {
			return err
		}

		// Config fills the gaps terraform did not export.
		if out.SecretID == "" {
			out.SecretID = cfg.SecretID()
		}
		region := out.Region
		if region == "" {
			region = cfg.Region
		}

		ctx := cmd.Context()
		store, err := secrets.NewGCPStore(ctx, cfg.Project)
		if err != nil {
			return err
		}
		defer store.Close()

		probes, err := validate.NewGCPProbes(ctx, cfg.Project, region, store)
		if err != nil {
			return err
		}

		snap := validate.NewRunner(probes, cfg.CheckTimeout).Run(ctx, out)

		if format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return err
			}
		} else {
			renderSnapshot(cfg, snap)
		}

		if !snap.OK {
			_, failed, _ := snap.Counts()
			return fmt.Errorf("validation failed: %d of %d checks failed", failed, len(snap.Checks))
		}
		return nil
	},
}

func renderSnapshot(cfg *config.Config, snap *validate.Snapshot) {
	color.Cyan("Deployment validation: project %s, environment %s", cfg.Project, cfg.Environment)
	color.Cyan("Taken: %s\n", snap.Taken.Format("2006-01-02 15:04:05 MST"))

	color.Cyan("Check                      Result     Detail")
	color.Cyan("─────────────────────────────────────────────────────────────")

	for _, c := range snap.Checks {
		printCheckResult(c)
	}

	passed, failed, skipped := snap.Counts()
	if snap.OK {
		color.Green("\n✓ PASS (%d passed, %d skipped)", passed, skipped)
	} else {
		color.Red("\n✗ FAIL (%d failed, %d passed, %d skipped)", failed, passed, skipped)
	}
}

func printCheckResult(c validate.Check) {
	var statusText string
	switch c.Result {
	case validate.ResultPass:
		statusText = color.GreenString("✓ PASS")
	case validate.ResultFail:
		statusText = color.RedString("✗ FAIL")
	case validate.ResultSkipped:
		statusText = color.YellowString("- SKIP")
	default:
		statusText = color.RedString("✗ UNKNOWN")
	}

	color.New().Printf("%-26s %s     %s\n", c.Name, statusText, c.Message)
}

func init() {
	validateCmd.Flags().String("format", "text", "Output format (text|json)")
}
