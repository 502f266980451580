// Package mcpserver exposes the indexer/searcher operations as MCP tools
// over stdio, so AI coding assistants can drive indexing and search
// directly. Grounded on the teacher's internal/mcp.Server (mcp.NewServer
// with an Implementation, mcp.AddTool per operation, a stdio transport
// run loop), narrowed to the five operations spec.md's external
// interface names instead of the teacher's hybrid BM25/semantic tool set.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragdex/ragdex/internal/indexer"
	"github.com/ragdex/ragdex/internal/searcher"
	"github.com/ragdex/ragdex/pkg/types"
)

// Version is the MCP server's reported implementation version.
const Version = "0.1.0"

// Server bridges an Indexer and Searcher onto MCP tool calls.
type Server struct {
	mcp      *mcp.Server
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	logger   *slog.Logger
}

// New creates a Server wired to ix/se. Call Run to start serving.
func New(ix *indexer.Indexer, se *searcher.Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		indexer:  ix,
		searcher: se,
		logger:   logger,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "ragdex",
		Version: Version,
	}, nil)
	s.registerTools()
	return s
}

// Run serves MCP tool calls over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_folder",
		Description: "Scan, chunk, embed and persist an index for a folder of source files. Safe to call repeatedly -- unchanged files are skipped.",
	}, s.indexFolderHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Run a similarity search against an already-indexed folder and return ranked snippets.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_context",
		Description: "Run a similarity search and format the results as a single prompt-ready context block.",
	}, s.getContextHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "folder_status",
		Description: "Report a folder's indexing status: phase, file/chunk counts, staleness and drift, without mutating the index.",
	}, s.folderStatusHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "clear_folder",
		Description: "Drop the in-memory cache and delete the on-disk index for a folder.",
	}, s.clearFolderHandler)

	s.logger.Info("mcp_tools_registered", slog.Int("count", 5))
}

// IndexFolderInput is the index_folder tool's input schema.
type IndexFolderInput struct {
	Path              string   `json:"path" jsonschema:"absolute or relative path to the folder to index"`
	IncludeExtensions []string `json:"include_extensions,omitempty" jsonschema:"file extensions to include, e.g. [\".go\", \".md\"]"`
	ExcludeFolders    []string `json:"exclude_folders,omitempty" jsonschema:"directory names to skip"`
	OutputFolder      string   `json:"output_folder,omitempty" jsonschema:"override where the .rag-ts storage directory is written"`
}

// IndexFolderOutput is the index_folder tool's output schema.
type IndexFolderOutput struct {
	Status types.Status `json:"status"`
}

func (s *Server) indexFolderHandler(ctx context.Context, req *mcp.CallToolRequest, input IndexFolderInput) (*mcp.CallToolResult, IndexFolderOutput, error) {
	status, err := s.indexer.Index(ctx, input.Path, indexer.Options{
		IncludeExtensions: input.IncludeExtensions,
		ExcludeFolders:    input.ExcludeFolders,
		OutputFolder:       input.OutputFolder,
	})
	if err != nil {
		return nil, IndexFolderOutput{}, err
	}
	return nil, IndexFolderOutput{Status: status}, nil
}

// SearchInput is the search tool's input schema.
type SearchInput struct {
	Path         string `json:"path" jsonschema:"folder previously passed to index_folder"`
	Query        string `json:"query" jsonschema:"the search query"`
	TopK         int    `json:"top_k,omitempty" jsonschema:"maximum number of results, default 6"`
	OutputFolder string `json:"output_folder,omitempty" jsonschema:"must match the output_folder used at index time, if any"`
}

// SearchOutput is the search tool's output schema.
type SearchOutput struct {
	Matches     []searcher.Match `json:"matches"`
	DurationMs  int64            `json:"duration_ms"`
	TotalChunks int              `json:"total_chunks"`
}

func (s *Server) searchHandler(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.searcher.Search(ctx, input.Path, input.Query, searcher.Options{
		TopK:         input.TopK,
		OutputFolder: input.OutputFolder,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{
		Matches:     result.Matches,
		DurationMs:  result.DurationMs,
		TotalChunks: result.TotalChunks,
	}, nil
}

// GetContextInput is the get_context tool's input schema.
type GetContextInput struct {
	Path         string `json:"path" jsonschema:"folder previously passed to index_folder"`
	Query        string `json:"query" jsonschema:"the search query"`
	OutputFolder string `json:"output_folder,omitempty" jsonschema:"must match the output_folder used at index time, if any"`
}

// GetContextOutput is the get_context tool's output schema.
type GetContextOutput struct {
	Context string `json:"context"`
}

func (s *Server) getContextHandler(ctx context.Context, req *mcp.CallToolRequest, input GetContextInput) (*mcp.CallToolResult, GetContextOutput, error) {
	block, err := s.searcher.GetContextForQuery(ctx, input.Path, input.Query, searcher.Options{
		OutputFolder: input.OutputFolder,
	})
	if err != nil {
		return nil, GetContextOutput{}, err
	}
	return nil, GetContextOutput{Context: block}, nil
}

// FolderStatusInput is the folder_status tool's input schema.
type FolderStatusInput struct {
	Path         string `json:"path" jsonschema:"folder to report status for"`
	OutputFolder string `json:"output_folder,omitempty" jsonschema:"must match the output_folder used at index time, if any"`
}

// FolderStatusOutput is the folder_status tool's output schema.
type FolderStatusOutput struct {
	Status types.Status `json:"status"`
}

func (s *Server) folderStatusHandler(ctx context.Context, req *mcp.CallToolRequest, input FolderStatusInput) (*mcp.CallToolResult, FolderStatusOutput, error) {
	status, err := s.indexer.GetStatus(input.Path, indexer.Options{OutputFolder: input.OutputFolder})
	if err != nil {
		return nil, FolderStatusOutput{}, err
	}
	return nil, FolderStatusOutput{Status: status}, nil
}

// ClearFolderInput is the clear_folder tool's input schema.
type ClearFolderInput struct {
	Path         string `json:"path" jsonschema:"folder whose index should be cleared"`
	OutputFolder string `json:"output_folder,omitempty" jsonschema:"must match the output_folder used at index time, if any"`
}

// ClearFolderOutput is the clear_folder tool's output schema.
type ClearFolderOutput struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) clearFolderHandler(ctx context.Context, req *mcp.CallToolRequest, input ClearFolderInput) (*mcp.CallToolResult, ClearFolderOutput, error) {
	if err := s.indexer.ClearFolder(input.Path, indexer.Options{OutputFolder: input.OutputFolder}); err != nil {
		return nil, ClearFolderOutput{}, err
	}
	return nil, ClearFolderOutput{Cleared: true}, nil
}
