package cli

import (
	"github.com/spf13/cobra"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check stored parent links for loops and missing parents",
		Long: `Check scans every menu. Items on a parent loop are errors and make the
command exit non-zero. Items whose parent is missing render as roots and are
only reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.menus.CheckIntegrity(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range report.Menus {
				switch {
				case len(m.Loops) > 0:
					printError(out, "%s: %d items, loops through %v", m.MenuName, m.ItemCount, m.Loops)
				default:
					printSuccess(out, "%s: %d items", m.MenuName, m.ItemCount)
				}
				if len(m.Dangling) > 0 {
					printDetail(out, "missing parents, shown as roots: %v", m.Dangling)
				}
			}

			if !report.OK() {
				loggerFromContext(ctx).Error("parent loops found", "items", report.Loops)
				return errIntegrity
			}
			return nil
		},
	}
}
