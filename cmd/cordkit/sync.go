package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"cordkit/pkg/discord"
	"cordkit/pkg/handler"
)

var syncTimeout time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish the local commands and exit",
	Long: `Reconcile the published application commands with the local definitions
in every scope, then exit. Unchanged commands are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHandler(func(ctx context.Context, h *handler.Handler) error {
			if err := h.Sync(ctx); err != nil {
				return err
			}
			return yaml.NewEncoder(os.Stdout).Encode(h.Registry().Commands())
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what sync would change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHandler(func(ctx context.Context, h *handler.Handler) error {
			diffs, err := h.PlanAll(ctx)
			if err != nil {
				return err
			}
			return printPlan(diffs)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, planCmd} {
		c.Flags().DurationVar(&syncTimeout, "timeout", time.Minute, "overall timeout")
	}
}

func printPlan(diffs []*handler.Diff) error {
	summaries := make([]handler.Summary, 0, len(diffs))
	changed := 0
	for _, d := range diffs {
		summaries = append(summaries, d.Summary())
		if d.Changed() {
			changed++
		}
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(summaries); err != nil {
		return err
	}
	fmt.Printf("%d of %d scopes would change\n", changed, len(diffs))
	return nil
}

// withHandler builds a handler over REST only, loads the registered
// structures and runs fn. The gateway connection is never opened.
func withHandler(fn func(ctx context.Context, h *handler.Handler) error) error {
	var h *handler.Handler
	app := fx.New(
		coreModules(),
		discord.RESTModule,
		fx.Provide(handler.ProvideHandler),
		fx.Invoke(func(hh *handler.Handler) error {
			h = hh
			if err := h.LoadRegistered(); err != nil {
				return err
			}
			return registerExamples(h)
		}),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	return fn(ctx, h)
}
