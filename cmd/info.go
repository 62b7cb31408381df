package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/stagehand/internal/bridge"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show host environment details",
	Long: `Query the configured host backend and print its environment details:
application version, Python version, and installation paths for the
bridge host; backend identity for the memory host.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	printKV := func(k, v string) {
		fmt.Printf("%s %s\n", labelStyle.Render(k+":"), valueStyle.Render(v))
	}

	printKV("host", cfg.Host.Kind)
	b, ok := h.(*bridge.Host)
	if !ok {
		printKV("backend", "in-memory scene tree")
		return nil
	}

	info, err := b.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("querying host: %w", err)
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printKV(k, fmt.Sprintf("%v", info[k]))
	}
	return nil
}
