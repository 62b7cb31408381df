package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stagehand/internal/graph"
	"github.com/zjrosen/stagehand/internal/host/memhost"
)

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Build a sample graph on the in-memory host",
	Long: `Construct a small descriptor chain, materialize it against the
in-memory host, and print the created nodes. Useful for a quick look at
chain auto-wiring without a live authoring session.`,
	RunE: runPlayground,
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}

func runPlayground(cmd *cobra.Command, args []string) error {
	h := memhost.New()
	engine, provider, err := newEngine(h)
	if err != nil {
		return err
	}
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	geo := graph.New(graph.Path("/obj"), "geo", graph.WithName("demo"))
	chain := graph.NewChain(
		graph.New(geo, "box", graph.WithAttrs(map[string]any{"sizex": 2.0, "sizey": 2.0})),
		graph.New(geo, "xform", graph.WithAttr("ty", 1.0)),
		graph.New(geo, "output", graph.WithDisplay(true), graph.WithRender(true)),
	)

	created, err := chain.Create(cmd.Context(), engine)
	if err != nil {
		return fmt.Errorf("materializing demo chain: %w", err)
	}

	fmt.Println(labelStyle.Render("created nodes:"))
	for _, c := range created {
		fmt.Printf("  %s %s\n",
			okStyle.Render("+"),
			valueStyle.Render(fmt.Sprintf("%s (%s)", c.Object.Path(), c.Descriptor.TypeName())))
	}
	return nil
}
