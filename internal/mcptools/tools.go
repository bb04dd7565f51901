package mcptools

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handlers serves the profiler tools. Each call loads its own Table.
type Handlers struct {
	Options  analysis.Options
	HeadRows int
	Client   *http.Client
}

// NewServer registers every profiler tool on a fresh MCP server.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"tablescope",
		version,
		server.WithLogging(),
		server.WithRecovery(),
	)
	for _, t := range h.tools() {
		s.AddTool(t.tool, t.handler)
	}
	return s
}

// ServeStdio runs the MCP server over stdin/stdout until EOF.
func ServeStdio(version string, h *Handlers) error {
	log.Println("Starting tablescope MCP server via stdio...")
	return server.ServeStdio(NewServer(version, h))
}

type toolDef struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func sourceArg() mcp.ToolOption {
	return mcp.WithString("path",
		mcp.Description("Delimited file to profile: a local path, a file:// URI or an http(s):// URL."),
		mcp.Required(),
	)
}

func formatArg() mcp.ToolOption {
	return mcp.WithString("output_format",
		mcp.Description("Result format."),
		mcp.DefaultString("markdown"),
		mcp.Enum("markdown", "json"),
	)
}

func rowsArg() mcp.ToolOption {
	return mcp.WithNumber("n",
		mcp.Description("Number of rows to return."),
		mcp.DefaultNumber(10),
	)
}

func (h *Handlers) tools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool("profile_overview",
				mcp.WithDescription("Shape, dtypes, missing values, duplicate rows and memory estimate of a dataset."),
				sourceArg(), formatArg()),
			handler: h.handle("profile_overview", h.overview),
		},
		{
			tool: mcp.NewTool("profile_statistics",
				mcp.WithDescription("count, mean, std, min, quartiles and max for every numeric column."),
				sourceArg(), formatArg()),
			handler: h.handle("profile_statistics", h.statistics),
		},
		{
			tool: mcp.NewTool("profile_correlation",
				mcp.WithDescription("Pairwise-complete Pearson correlation among numeric columns."),
				sourceArg(), formatArg()),
			handler: h.handle("profile_correlation", h.correlation),
		},
		{
			tool: mcp.NewTool("profile_head",
				mcp.WithDescription("First n rows of a dataset."),
				sourceArg(), rowsArg(), formatArg()),
			handler: h.handle("profile_head", h.rows(true)),
		},
		{
			tool: mcp.NewTool("profile_tail",
				mcp.WithDescription("Last n rows of a dataset, in original order."),
				sourceArg(), rowsArg(), formatArg()),
			handler: h.handle("profile_tail", h.rows(false)),
		},
		{
			tool: mcp.NewTool("profile_column",
				mcp.WithDescription("Unique count, nulls and top values of one column."),
				sourceArg(),
				mcp.WithString("column",
					mcp.Description("Column name."),
					mcp.Required(),
				),
				formatArg()),
			handler: h.handle("profile_column", h.column),
		},
		{
			tool: mcp.NewTool("profile_report",
				mcp.WithDescription("Full profile: overview, statistics, correlation, head and tail rows."),
				sourceArg(), rowsArg(), formatArg()),
			handler: h.handle("profile_report", h.report),
		},
	}
}

// query renders a result as markdown and returns the value to use for json.
type query func(t *analysis.Table, args map[string]interface{}) (md string, v any, err error)

func (h *Handlers) handle(name string, q query) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments
		src, ok := args["path"].(string)
		if !ok || strings.TrimSpace(src) == "" {
			return errorResult("missing or invalid required argument: path (string)"), nil
		}
		format, ok := args["output_format"].(string)
		if !ok || format == "" {
			format = "markdown"
		}
		if format != "markdown" && format != "json" {
			return errorResult(fmt.Sprintf("unsupported output_format: %q", format)), nil
		}
		log.Printf("Handling %s: path=%s format=%s", name, src, format)

		t, err := h.load(ctx, src)
		if err != nil {
			log.Printf("%s: %v", name, err)
			return errorResult(err.Error()), nil
		}
		md, v, err := q(t, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if format == "markdown" {
			return textResult(md), nil
		}
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(string(b)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	r := textResult(msg)
	r.IsError = true
	return r
}

// load accepts a plain local path, a file:// URI or an http(s) URL.
func (h *Handlers) load(ctx context.Context, src string) (*analysis.Table, error) {
	if !strings.Contains(src, "://") {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", src, err)
		}
		return analysis.Load(abs, h.Options)
	}
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", src, err)
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("invalid file path derived from URI %q", src)
		}
		return analysis.Load(u.Path, h.Options)
	case "http", "https":
		client := h.Client
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, &analysis.NotFoundError{Path: src}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download %s: unexpected status %s", src, resp.Status)
		}
		return analysis.Read(resp.Body, path.Base(u.Path), h.Options)
	default:
		return nil, fmt.Errorf("unsupported URI scheme %q (use a local path, file://, http:// or https://)", u.Scheme)
	}
}

func (h *Handlers) rowCount(args map[string]interface{}) int {
	if f, ok := args["n"].(float64); ok {
		return int(f)
	}
	if h.HeadRows > 0 {
		return h.HeadRows
	}
	return 10
}

func (h *Handlers) overview(t *analysis.Table, _ map[string]interface{}) (string, any, error) {
	ov := t.Overview()
	return analysis.OverviewMarkdown(t.Name(), ov), ov, nil
}

func (h *Handlers) statistics(t *analysis.Table, _ map[string]interface{}) (string, any, error) {
	stats := t.Statistics()
	return analysis.StatisticsMarkdown(t.NumericColumns(), stats), stats, nil
}

func (h *Handlers) correlation(t *analysis.Table, _ map[string]interface{}) (string, any, error) {
	corr, ok := t.Correlation()
	if !ok {
		return analysis.CorrelationMarkdown(nil, nil), map[string]any{
			"correlation": nil,
			"reason":      fmt.Sprintf("%v: fewer than two numeric columns", analysis.ErrNotApplicable),
		}, nil
	}
	return analysis.CorrelationMarkdown(t.NumericColumns(), corr), corr, nil
}

func (h *Handlers) rows(head bool) query {
	return func(t *analysis.Table, args map[string]interface{}) (string, any, error) {
		n := h.rowCount(args)
		recs := t.Tail(n)
		if head {
			recs = t.Head(n)
		}
		return analysis.RecordsMarkdown(t.Columns(), recs), recs, nil
	}
}

func (h *Handlers) column(t *analysis.Table, args map[string]interface{}) (string, any, error) {
	c, ok := args["column"].(string)
	if !ok || c == "" {
		return "", nil, fmt.Errorf("missing or invalid required argument: column (string)")
	}
	st, err := t.ColumnStats(c)
	if err != nil {
		return "", nil, err
	}
	return st.Markdown(), st, nil
}

func (h *Handlers) report(t *analysis.Table, args map[string]interface{}) (string, any, error) {
	r := analysis.BuildReport(t, h.rowCount(args))
	return r.Markdown(), r, nil
}
