package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

func patchCmd() *cobra.Command {
	var (
		asJSON     bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "patch OLD NEW",
		Short: "Patch the markup in OLD toward NEW and print the mutations",
		Long: `Parse OLD into a container, reconcile it against NEW and print the
resulting markup followed by every mutation the patcher applied.

Examples:
  morph patch before.html after.html
  morph patch --json before.html after.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			oldMarkup, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			newMarkup, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			log := &patch.Log{}
			p := patch.New(
				patch.WithMarkers(patch.Markers{Key: cfg.Markers.Key, Boundary: cfg.Markers.Boundary}),
				patch.WithObserver(log),
			)
			container, err := parseContainer(string(oldMarkup))
			if err != nil {
				return err
			}
			p.Patch(container, string(newMarkup))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"html":      dom.InnerHTML(container),
					"mutations": log.Mutations,
				})
			}
			fmt.Fprintln(out, dom.InnerHTML(container))
			fmt.Fprintln(out)
			for _, m := range log.Mutations {
				fmt.Fprintln(out, formatMutation(m))
			}
			success(cmd.ErrOrStderr(), "%d mutations", log.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: nearest morph.json)")

	return cmd
}

// parseContainer builds a detached container holding markup.
func parseContainer(markup string) (*dom.Node, error) {
	container := dom.NewElement("div")
	nodes, err := dom.ParseFragmentIn(container, markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

func formatMutation(m patch.Mutation) string {
	path := make([]string, len(m.Path))
	for i, p := range m.Path {
		path[i] = fmt.Sprint(p)
	}
	line := fmt.Sprintf("%-11s /%s", m.Op, strings.Join(path, "/"))
	switch m.Op {
	case patch.OpSetAttr, patch.OpRemoveAttr:
		line += fmt.Sprintf(" %s=%q", m.Key, m.Value)
	case patch.OpSetText:
		line += fmt.Sprintf(" %q", m.Value)
	case patch.OpMoveNode:
		line += fmt.Sprintf(" -> %d", m.Index)
	case patch.OpInsertNode, patch.OpReplaceNode:
		line += " " + m.HTML
	}
	return line
}
