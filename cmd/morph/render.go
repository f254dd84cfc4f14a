package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/internal/demo"
	"github.com/vango-dev/morph/pkg/archive"
	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

func renderCmd() *cobra.Command {
	var (
		archiveName string
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "render DEMO",
		Short: "Render a demo component to HTML",
		Long: fmt.Sprintf(`Mount a demo component into an empty document and print the
markup it produced.

With --archive the render, including its mutation log, is stored in the
S3 bucket configured under "archive".

Demos: %v

Examples:
  morph render counter
  morph render todos --archive todos-initial`, demo.Names()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := demo.Lookup(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			opts, err := runtimeOptions(cfg, slog.Default().With("component", "render"))
			if err != nil {
				return err
			}

			log := &patch.Log{}
			rt := component.New(append(opts, component.WithPatchObserver(log))...)
			doc := dom.NewDocument()
			body := dom.NewElement("body")
			doc.AppendChild(body)
			root, err := rt.Mount(body, build(rt), nil)
			if err != nil {
				return err
			}
			rt.Flush()
			html := dom.InnerHTML(body)
			fmt.Fprintln(cmd.OutOrStdout(), html)

			if archiveName == "" {
				return nil
			}
			store, err := archiveStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			err = store.Put(ctx, archiveName, &archive.Entry{
				Definition: root.Definition().Name(),
				Instance:   root.ID(),
				HTML:       html,
				Mutations:  log.Mutations,
			})
			if err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Archived s3://%s/%s", store.Bucket(), store.Key(archiveName))
			return nil
		},
	}

	cmd.Flags().StringVarP(&archiveName, "archive", "a", "", "Store the render in the configured archive under this name")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: nearest morph.json)")

	return cmd
}
