package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// UnverifiedListing is the JSON shape for the list-unverified command.
type UnverifiedListing struct {
	Count    int         `json:"count"`
	Models2D []ModelInfo `json:"models_2d"`
	Models3D []ModelInfo `json:"models_3d"`
}

// NewListUnverifiedCommand creates the list-unverified command.
func NewListUnverifiedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-unverified",
		Short: "List models still awaiting verification",
		Long: `List catalog models with no verified ledger entry, grouped by
dimensionality. Skipped and unsupported models are left out. Failed
models are listed, since a failed re-check is not a verification.

Examples:
  gridparity list-unverified
  gridparity list-unverified --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListUnverified(rootOpts, cmd)
		},
	}

	return cmd
}

func runListUnverified(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	models, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	led, err := loadLedger(cfg)
	if err != nil {
		return err
	}

	var listing UnverifiedListing
	for _, m := range models {
		if led.IsVerified(m.Name) || led.IsSkipped(m.Name) || cfg.Skip.Excluded(m.Name) {
			continue
		}
		listing.Count++
		info := ModelInfo{Name: m.Name, Extents: m.Extents()}
		if m.Is3D {
			listing.Models3D = append(listing.Models3D, info)
		} else {
			listing.Models2D = append(listing.Models2D, info)
		}
	}
	sortByName(listing.Models2D)
	sortByName(listing.Models3D)

	if opts.Format == "json" {
		listing.Models2D = ensureModels(listing.Models2D)
		listing.Models3D = ensureModels(listing.Models3D)
		return outputJSON(cmd, listing)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Unverified models (%d):\n\n", listing.Count)
	if len(listing.Models2D) > 0 {
		fmt.Fprintln(w, "2D Models:")
		for _, m := range listing.Models2D {
			fmt.Fprintf(w, "  %s (%s)\n", m.Name, m.Extents)
		}
	}
	if len(listing.Models3D) > 0 {
		fmt.Fprintln(w, "\n3D Models:")
		for _, m := range listing.Models3D {
			fmt.Fprintf(w, "  %s (%s)\n", m.Name, m.Extents)
		}
	}
	return nil
}
