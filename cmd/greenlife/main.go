package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"greenlife/internal/catalog"
	"greenlife/internal/config"
	"greenlife/internal/tooling"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if version == "" {
		version = "dev"
	}
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("greenlife %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "greenlife",
		Short: "Conversational shopping assistant",
		Long:  "GreenLife is a conversational shopping assistant for an organic grocery store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd)
		},
	}
	root.AddCommand(chatCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, serveShutdownCh)
		},
	}
	root.AddCommand(serveCmd)

	catalogCmd := &cobra.Command{Use: "catalog", Short: "Inspect the product catalog"}
	listCmd := &cobra.Command{Use: "list", Short: "List all products", RunE: runCatalogList}
	searchCmd := &cobra.Command{Use: "search", Short: "Search products by name or description", RunE: runCatalogSearch}
	searchCmd.Args = cobra.ExactArgs(1)
	catalogCmd.AddCommand(listCmd, searchCmd)
	root.AddCommand(catalogCmd)

	configCmd := &cobra.Command{Use: "config", Short: "Manage configuration"}
	initCmd := &cobra.Command{Use: "init", Short: "Write a default config file", RunE: runConfigInit}
	configCmd.AddCommand(initCmd)
	root.AddCommand(configCmd)

	return root
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	for _, p := range cat.All() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-28s %s (%s) stock=%d min=%d\n",
			p.ID, p.Name, tooling.FormatPrice(cfg.Assistant.Currency, p.Price), p.UnitSize, p.Stock, p.MinOrderQuantity)
	}
	return nil
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	matches := cat.Search(args[0])
	if len(matches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matches")
		return nil
	}
	for _, p := range matches {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Name, tooling.FormatProduct(p, cfg.Assistant.Currency))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

// serveShutdownCh is set by tests to unblock runServe without signals.
// Production leaves it nil.
var serveShutdownCh <-chan struct{}

// exitCodeErr carries an exit code for the process. When returned from a
// command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=1.0.0" -o greenlife ./cmd/greenlife
var version string
