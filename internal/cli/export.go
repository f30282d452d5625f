package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treemenu/treemenu-server/internal/service"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every menu item as a seed fixture",
		Long: `Export writes all items in the fixture format read by the seed command.
Items with a missing parent or on a parent loop are written as roots.`,
		Example: `  menuctl export --format yaml > menus.yaml
  menuctl export --out backup/menus.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			fixture, err := e.menus.ExportFixture(ctx)
			if err != nil {
				return err
			}

			if out == "" {
				return service.WriteFixture(cmd.OutOrStdout(), fixture, format)
			}

			if !cmd.Flags().Changed("format") {
				if ext := strings.TrimPrefix(filepath.Ext(out), "."); ext != "" {
					format = ext
				}
			}

			f, err := os.Create(out) //#nosec G304 -- output path comes from the operator
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := service.WriteFixture(f, fixture, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), "exported %d items to %s", len(fixture.Items), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "toml or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")

	return cmd
}
