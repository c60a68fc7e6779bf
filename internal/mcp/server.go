package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docrag/internal/answer"
	"github.com/Aman-CERP/docrag/internal/chunk"
	"github.com/Aman-CERP/docrag/internal/search"
	"github.com/Aman-CERP/docrag/pkg/version"
)

// ServerName is reported to clients.
const ServerName = "docrag"

// Engine is the retrieval surface the server needs.
type Engine interface {
	Retrieve(ctx context.Context, query string, mode search.Mode) ([]chunk.Chunk, error)
	Status() search.Status
}

// Answerer answers questions from retrieved context.
type Answerer interface {
	Answer(ctx context.Context, question string, mode search.Mode) (*answer.Answer, error)
}

// Server exposes retrieval and question answering as MCP tools.
type Server struct {
	mcp      *mcp.Server
	engine   Engine
	answerer Answerer
	logger   *slog.Logger
}

// NewServer creates a server. answerer may be nil, in which case the ask tool
// reports an internal error.
func NewServer(engine Engine, answerer Answerer) (*Server, error) {
	if engine == nil {
		return nil, errors.New("retrieval engine is required")
	}

	s := &Server{
		engine:   engine,
		answerer: answerer,
		logger:   slog.Default(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version.Version}, nil)
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpRetrieveHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpAskHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}

	switch name {
	case "retrieve":
		return s.retrieve(ctx, RetrieveInput{Query: str("query"), Mode: str("mode")})
	case "ask":
		return s.ask(ctx, AskInput{Question: str("question"), Mode: str("mode")})
	case "index_status":
		return s.indexStatus(), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) retrieve(ctx context.Context, in RetrieveInput) (*RetrieveOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}
	mode, err := parseMode(in.Mode)
	if err != nil {
		return nil, MapError(err)
	}

	requestID := generateRequestID()
	start := time.Now()
	results, err := s.engine.Retrieve(ctx, in.Query, mode)
	if err != nil {
		s.logger.Error("mcp_retrieve_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("mcp_retrieve_completed",
		slog.String("request_id", requestID),
		slog.String("mode", mode.String()),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	out := &RetrieveOutput{Mode: mode.String(), Results: make([]ChunkOutput, 0, len(results))}
	for _, c := range results {
		out.Results = append(out.Results, ChunkOutput{ID: c.ID, Source: c.Source, Index: c.Index, Text: c.Text})
	}
	return out, nil
}

func (s *Server) ask(ctx context.Context, in AskInput) (*AskOutput, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, NewInvalidParamsError("question parameter is required")
	}
	if s.answerer == nil {
		return nil, &MCPError{Code: ErrCodeInternalError, Message: "Answer generation is not configured."}
	}
	mode, err := parseMode(in.Mode)
	if err != nil {
		return nil, MapError(err)
	}

	res, err := s.answerer.Answer(ctx, in.Question, mode)
	if err != nil {
		s.logger.Error("mcp_ask_failed", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &AskOutput{
		Answer:    res.Answer,
		Context:   res.Context,
		Sources:   res.Sources,
		LatencyMs: res.LatencyMs,
		Mode:      res.Mode,
	}, nil
}

func (s *Server) indexStatus() *IndexStatusOutput {
	st := s.engine.Status()
	out := &IndexStatusOutput{
		Lexical:        st.Lexical.String(),
		Semantic:       st.Semantic.String(),
		LexicalChunks:  st.LexicalChunks,
		LexicalTerms:   st.LexicalTerms,
		SemanticChunks: st.SemanticChunks,
		Collection:     st.Collection,
	}
	if st.QueryCache != nil {
		out.CacheHits = st.QueryCache.Hits
		out.CacheMisses = st.QueryCache.Misses
	}
	return out
}

func (s *Server) mcpRetrieveHandler(ctx context.Context, _ *mcp.CallToolRequest, in RetrieveInput) (*mcp.CallToolResult, *RetrieveOutput, error) {
	out, err := s.retrieve(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func (s *Server) mcpAskHandler(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, *AskOutput, error) {
	out, err := s.ask(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (*mcp.CallToolResult, *IndexStatusOutput, error) {
	return nil, s.indexStatus(), nil
}

// Serve runs the server over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// parseMode defaults an empty mode to hybrid.
func parseMode(m string) (search.Mode, error) {
	if strings.TrimSpace(m) == "" {
		return search.ModeHybrid, nil
	}
	return search.ParseMode(m)
}

// generateRequestID creates a short ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
