package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/treemenu/treemenu-server/internal/menu"
)

type renderOpts struct {
	path     string
	collapse bool
}

func newRenderCmd(flags *globalFlags) *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <menu>",
		Short: "Render a menu as a tree for a request path",
		Long: `Render builds the named menu and marks the item whose link matches --path.
The active item is marked with ● and items on its ancestor chain with ▾.`,
		Example: `  menuctl render main_menu --path /services/web/
  menuctl render sidebar_menu --path /settings/account/ --collapse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.menus.DrawMenu(menu.WithRequestPath(ctx, opts.path), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Nodes) == 0 {
				fmt.Fprintln(out, styleWarning.Render(fmt.Sprintf("menu %q has no items", result.MenuName)))
				return nil
			}
			fmt.Fprintln(out, renderTree(result, opts.collapse))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "/", "request path used to pick the active item")
	cmd.Flags().BoolVar(&opts.collapse, "collapse", false, "only show children of expanded items")

	return cmd
}

// renderTree draws result with lipgloss. Collapsed output hides the children
// of items that are not on the active chain, the way a sidebar template would.
func renderTree(result menu.Result, collapse bool) string {
	t := tree.Root(styleTitle.Render(result.MenuName)).Enumerator(tree.RoundedEnumerator)
	for _, n := range result.Nodes {
		t.Child(nodeTree(n, result, collapse))
	}
	return t.String()
}

func nodeTree(n *menu.Node, result menu.Result, collapse bool) any {
	label := nodeLabel(n, result)
	if !n.HasChildren() || (collapse && !result.IsExpanded(n.ID)) {
		return label
	}

	t := tree.Root(label)
	for _, child := range n.Children {
		t.Child(nodeTree(child, result, collapse))
	}
	return t
}

func nodeLabel(n *menu.Node, result menu.Result) string {
	var b strings.Builder
	switch {
	case result.IsActive(n.ID):
		b.WriteString(styleActive.Render(iconActive + " " + n.Name))
	case result.IsExpanded(n.ID):
		b.WriteString(iconExpanded + " " + n.Name)
	default:
		b.WriteString(n.Name)
	}
	b.WriteString(" ")
	b.WriteString(styleDim.Render(iconArrow))
	b.WriteString(" ")
	b.WriteString(styleLink.Render(menu.DisplayURL(n.ResolvedURL)))
	return b.String()
}

func newMenusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "menus",
		Short: "List menus and their item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			menus, err := e.menus.ListMenus(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range menus {
				fmt.Fprintf(out, "%s %s\n", styleTitle.Render(m.Name), styleDim.Render(fmt.Sprintf("(%d items)", m.ItemCount)))
			}
			return nil
		},
	}
}
