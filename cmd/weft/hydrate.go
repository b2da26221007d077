package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weft-ui/weft"
	"github.com/weft-ui/weft/pkg/dom"
)

func hydrateCmd(flags *globalFlags) *cobra.Command {
	var (
		target      string
		start       int
		clicks      int
		recoverFlag bool
	)

	cmd := &cobra.Command{
		Use:   "hydrate <page.html>",
		Short: "Hydrate the demo counter into a page",
		Long: `Hydrate the demo counter into the server-rendered region of a page.

The region must be bracketed by <!--[--> and <!--]--> inside the target
element. When the markup does not match, the target is cleared and the
counter is mounted fresh (unless --recover=false).

The resulting markup and the native listeners attached are printed.

Examples:
  weft hydrate index.html
  weft hydrate index.html --target root --click 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("recover") {
				cfg.Hydration.Recover = recoverFlag
			}
			logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			doc, app, err := loadPage(args[0], target, logger)
			if err != nil {
				return err
			}

			rt := weft.New(doc, weft.WithConfig(cfg), weft.WithLogger(logger))
			defer rt.Close()

			h, err := rt.Hydrate(cmd.Context(), counter, weft.Options{
				Target: app,
				Props:  weft.Props{"start": start},
			})
			if err != nil {
				return err
			}

			if rt.State().String() == "hydrated" {
				success(out, "Hydrated %s into #%s", args[0], target)
			} else {
				warn(out, "Markup did not match, mounted fresh into #%s", target)
			}

			if clicks > 0 {
				button := app.ByAttr("data-hid", "inc")
				for i := 0; i < clicks; i++ {
					doc.Fire(button, dom.NewEvent("click", dom.EventInit{Bubbles: true, Cancelable: true}))
				}
				info(out, "clicked %d times", clicks)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, app.OuterHTML())
			fmt.Fprintln(out)

			var counts []string
			for _, t := range rt.Registry().Types() {
				counts = append(counts, fmt.Sprintf("%s=%d", t, rt.Registry().Count(t)))
			}
			info(out, "handle:    %s", h.ID())
			info(out, "listeners: %s", strings.Join(counts, " "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "app", "Id of the element holding the region")
	cmd.Flags().IntVar(&start, "start", 0, "Initial counter value")
	cmd.Flags().IntVar(&clicks, "click", 0, "Number of clicks to fire after hydrating")
	cmd.Flags().BoolVar(&recoverFlag, "recover", true, "Mount fresh when the markup does not match")

	return cmd
}
