package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoutesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List named routes available to named_url",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			reg, err := registry(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range reg.List() {
				fmt.Fprintf(out, "%s %s %s\n", r.Name, styleDim.Render(iconArrow), styleLink.Render(r.Path))
			}
			return nil
		},
	}
}
