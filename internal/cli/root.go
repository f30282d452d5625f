package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version shown by --version.
func SetVersion(v string) {
	version = v
}

// globalFlags are shared by every command that touches the data directory.
type globalFlags struct {
	verbose    bool
	dataPath   string
	backend    string
	routesFile string
	envFile    string
}

// Execute runs the menuctl CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "menuctl",
		Short:        "menuctl inspects and renders tree menus",
		Long:         `menuctl works on a tree menu data directory: render menus for a path, check parent links, export fixtures and issue admin tokens.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := charmlog.InfoLevel
			if flags.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("menuctl %s\n", version))
	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&flags.dataPath, "data-path", "", "data directory (default: $DATA_PATH or ~/TreeMenu/data)")
	pf.StringVar(&flags.backend, "store", "", "store backend: sqlite or badger (default: $STORE_BACKEND or sqlite)")
	pf.StringVar(&flags.routesFile, "routes-file", "", "TOML or YAML file of named routes")
	pf.StringVar(&flags.envFile, "env-file", ".env", "path to .env file")

	root.AddCommand(newRenderCmd(flags))
	root.AddCommand(newMenusCmd(flags))
	root.AddCommand(newCheckCmd(flags))
	root.AddCommand(newRoutesCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newTokenCmd(flags))

	return root
}
