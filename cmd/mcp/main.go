package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/docsort/internal/adapters/mcp"
	"github.com/kirillkom/docsort/internal/bootstrap"
	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logging.SetupWriter(os.Stderr, "docsort-mcp", cfg.LogLevel)

	pipeline, err := bootstrap.NewLocalPipeline(context.Background(), cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsort-mcp: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	srv := mcpadapter.NewServer(pipeline.Extract, pipeline.Classify).MCPServer(version)
	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(os.Stderr, "docsort-mcp: %v\n", err)
		pipeline.Close()
		os.Exit(1)
	}
}
