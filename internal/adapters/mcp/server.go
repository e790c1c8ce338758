// Package mcpadapter exposes the extraction pipeline as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
)

const (
	toolExtractDocument = "extract_document"
	toolClassifyText    = "classify_text"
)

type Server struct {
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
}

func NewServer(extractor ports.TextExtractor, classifier ports.DocumentClassifier) *Server {
	return &Server{extractor: extractor, classifier: classifier}
}

// MCPServer builds the tool server. Serve it with server.ServeStdio.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("docsort", version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool(toolExtractDocument,
		mcp.WithDescription("Extract plain text from a local PDF or image file, using OCR when the file has no text layer."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file to read.")),
		mcp.WithBoolean("classify", mcp.Description("Also assign a category to the extracted text.")),
	), s.handleExtract)

	srv.AddTool(mcp.NewTool(toolClassifyText,
		mcp.WithDescription("Assign a document category to a piece of text using the keyword rule table."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to classify.")),
	), s.handleClassify)

	return srv
}

type extractPayload struct {
	Extraction     domain.ExtractionResult       `json:"extraction"`
	Classification *domain.ClassificationOutcome `json:"classification,omitempty"`
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	path = filepath.Clean(path)

	payload := extractPayload{
		Extraction: s.extractor.Extract(ctx, path, filepath.Base(path)),
	}
	if request.GetBool("classify", false) && payload.Extraction.Succeeded() {
		outcome, err := s.classifier.Classify(ctx, payload.Extraction.Text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("classify: %v", err)), nil
		}
		payload.Classification = &outcome
	}
	return jsonResult(payload)
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}
	outcome, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classify: %v", err)), nil
	}
	return jsonResult(outcome)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
