package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stagehand/internal/bridge"
	"github.com/zjrosen/stagehand/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and host connectivity",
	Long: `Validate the effective configuration, then confirm the configured host
backend is reachable and answering. For the bridge host this spawns the
interpreter once; for the memory host it only checks configuration.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		fmt.Println(errStyle.Render("✗"), "configuration:", err)
		return err
	}
	fmt.Println(okStyle.Render("✓"), "configuration valid")

	h, err := newHost()
	if err != nil {
		return err
	}
	if b, ok := h.(*bridge.Host); ok {
		if err := b.Validate(cmd.Context()); err != nil {
			fmt.Println(errStyle.Render("✗"), "host unreachable:", err)
			return err
		}
	}
	fmt.Println(okStyle.Render("✓"), "host reachable")
	return nil
}
