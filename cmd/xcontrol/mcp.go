package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/mcp"
)

func runMCP(args []string) int {
	// "mcp serve" is accepted as an alias for "mcp".
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: xcontrol mcp")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Designed to be invoked by MCP clients")
		fmt.Fprintln(os.Stdout, "such as Claude Code or Claude Desktop.")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Example (Claude Code):")
		fmt.Fprintln(os.Stdout, "  claude mcp add xcontrol -- xcontrol mcp")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Unknown mcp argument: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: xcontrol mcp")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runErr := server.Run(ctx)
	if err := server.Close(); err != nil {
		log.Printf("Warning: session cleanup failed: %v", err)
	}
	if runErr != nil {
		log.Fatalf("MCP server error: %v", runErr)
	}
	return 0
}
