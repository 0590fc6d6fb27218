package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// ModelInfo is the JSON shape for one catalog model in listings.
type ModelInfo struct {
	Name    string `json:"name"`
	Extents string `json:"extents"`
}

// ModelListing is the JSON shape for the list command.
type ModelListing struct {
	Models2D []ModelInfo `json:"models_2d"`
	Models3D []ModelInfo `json:"models_3d"`
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Only2D bool
	Only3D bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog models eligible for batch sweeps",
		Long: `List the catalog models a broad batch sweep would select, grouped by
dimensionality. Models on the unsupported and test-only skip lists are
left out.

Examples:
  gridparity list
  gridparity list --2d
  gridparity list --3d`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Only2D, "2d", false, "list only 2D models")
	cmd.Flags().BoolVar(&opts.Only3D, "3d", false, "list only 3D models")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Only2D && opts.Only3D {
		return NewExitError(ExitCommandError, "--2d and --3d are mutually exclusive")
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	models, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var listing ModelListing
	for _, m := range models {
		if cfg.Skip.Excluded(m.Name) {
			continue
		}
		info := ModelInfo{Name: m.Name, Extents: m.Extents()}
		if m.Is3D {
			listing.Models3D = append(listing.Models3D, info)
		} else {
			listing.Models2D = append(listing.Models2D, info)
		}
	}
	sortByName(listing.Models2D)
	sortByName(listing.Models3D)

	if opts.Only3D {
		listing.Models2D = nil
	}
	if opts.Only2D {
		listing.Models3D = nil
	}

	if opts.Format == "json" {
		listing.Models2D = ensureModels(listing.Models2D)
		listing.Models3D = ensureModels(listing.Models3D)
		return outputJSON(cmd, listing)
	}

	w := cmd.OutOrStdout()
	if !opts.Only3D {
		fmt.Fprintln(w, "2D Models:")
		for _, m := range listing.Models2D {
			fmt.Fprintf(w, "  %s\n", m.Name)
		}
	}
	if !opts.Only2D {
		if opts.Only3D {
			fmt.Fprintln(w, "3D Models:")
		} else {
			fmt.Fprintln(w, "\n3D Models:")
		}
		for _, m := range listing.Models3D {
			fmt.Fprintf(w, "  %s\n", m.Name)
		}
	}
	return nil
}

func sortByName(models []ModelInfo) {
	slices.SortFunc(models, func(a, b ModelInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// ensureModels keeps JSON output at [] instead of null for empty groups.
func ensureModels(models []ModelInfo) []ModelInfo {
	if models == nil {
		return []ModelInfo{}
	}
	return models
}
