package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/a3tai/orcamento/internal/config"
	"github.com/a3tai/orcamento/internal/descriptions"
	"github.com/a3tai/orcamento/internal/logging"
	"github.com/a3tai/orcamento/internal/quote"
	"github.com/a3tai/orcamento/internal/service"
)

// Tool names
const (
	ToolImportPDF     = "quote_import_pdf"
	ToolRenderPDF     = "quote_render_pdf"
	ToolApply         = "quote_apply"
	ToolSaveBackup    = "quote_save_backup"
	ToolListBackups   = "quote_list_backups"
	ToolRestoreBackup = "quote_restore_backup"
	ToolImportBackup  = "quote_import_backup"
	ToolServerInfo    = "quote_server_info"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	mcpServer *server.MCPServer
	logger    *log.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list is fixed
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		ToolImportPDF,
		mcp.WithDescription(descriptions.GetToolDescription(ToolImportPDF)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, relative to the work directory or absolute inside it"),
		),
		mcp.WithObject("form",
			mcp.Description("Optional current form; the imported quote is merged into it"),
		),
	), s.handleImportPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolRenderPDF,
		mcp.WithDescription(descriptions.GetToolDescription(ToolRenderPDF)),
		mcp.WithObject("form",
			mcp.Required(),
			mcp.Description("Quote form: {quote, discount_percent, editing}"),
		),
		mcp.WithString("output_path",
			mcp.Description("Output file; defaults to orcamento_<client>_<dd-mm-YYYY>.pdf"),
		),
	), s.handleRenderPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolApply,
		mcp.WithDescription(descriptions.GetToolDescription(ToolApply)),
		mcp.WithObject("form",
			mcp.Description("Current form; an empty form is used when omitted"),
		),
		mcp.WithObject("action",
			mcp.Required(),
			mcp.Description(`Action envelope, e.g. {"type": "add_item", "item": {"name": "Mesa", "quantity": 1, "unit_price": 400}}`),
		),
	), s.handleApply)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolSaveBackup,
		mcp.WithDescription(descriptions.GetToolDescription(ToolSaveBackup)),
		mcp.WithObject("form",
			mcp.Required(),
			mcp.Description("Quote form with a client name and at least one item"),
		),
	), s.handleSaveBackup)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolListBackups,
		mcp.WithDescription(descriptions.GetToolDescription(ToolListBackups)),
		mcp.WithString("client",
			mcp.Description("Client name to filter by"),
		),
	), s.handleListBackups)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolRestoreBackup,
		mcp.WithDescription(descriptions.GetToolDescription(ToolRestoreBackup)),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Backup key as returned by quote_list_backups"),
		),
	), s.handleRestoreBackup)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolImportBackup,
		mcp.WithDescription(descriptions.GetToolDescription(ToolImportBackup)),
		mcp.WithString("backup",
			mcp.Required(),
			mcp.Description("Backup JSON document"),
		),
	), s.handleImportBackup)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(ToolServerInfo)),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleImportPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	form, _, err := formArg(request, "form")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ImportPDF(ctx, path)
	if err != nil {
		return s.toolError(ToolImportPDF, err), nil
	}

	merged, err := s.service.Apply(form, quote.LoadQuote{Quote: result.Quote})
	if err != nil {
		return s.toolError(ToolImportPDF, err), nil
	}

	summary := fmt.Sprintf("Imported %s: %d page(s), %d item(s), client %q",
		result.Source, result.Pages, len(result.Quote.LineItems), result.Quote.ClientName)
	return jsonResult(summary, map[string]any{"import": result, "form": merged})
}

func (s *Server) handleRenderPDF(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form, ok, err := formArg(request, "form")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(`required argument "form" not found`), nil
	}

	result, err := s.service.RenderPDF(form, request.GetString("output_path", ""))
	if err != nil {
		return s.toolError(ToolRenderPDF, err), nil
	}

	return jsonResult(fmt.Sprintf("Rendered quote PDF: %s (%d bytes)", result.Path, result.Size), result)
}

func (s *Server) handleApply(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form, _, err := formArg(request, "form")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := request.GetArguments()["action"]
	if !ok {
		return mcp.NewToolResultError(`required argument "action" not found`), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := quote.DecodeAction(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	next, err := s.service.Apply(form, action)
	if err != nil {
		return s.toolError(ToolApply, err), nil
	}

	summary := fmt.Sprintf("%d item(s), total %s, final %s",
		len(next.Quote.LineItems), quote.FormatBRL(next.Total()), quote.FormatBRL(next.FinalValue()))
	return jsonResult(summary, next)
}

func (s *Server) handleSaveBackup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form, ok, err := formArg(request, "form")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(`required argument "form" not found`), nil
	}

	key, err := s.service.SaveBackup(ctx, form)
	if err != nil {
		return s.toolError(ToolSaveBackup, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Backup saved for %s: %s", form.Quote.ClientName, key)), nil
}

func (s *Server) handleListBackups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client := request.GetString("client", "")

	entries, err := s.service.ListBackups(ctx, client)
	if err != nil {
		return s.toolError(ToolListBackups, err), nil
	}
	if len(entries) == 0 {
		if client != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No backups found for %s.", client)), nil
		}
		return mcp.NewToolResultText("No backups found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d backup(s):\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s (client: %s)\n", i+1, e.Key, e.Client)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	form, err := s.service.RestoreBackup(ctx, key)
	if err != nil {
		return s.toolError(ToolRestoreBackup, err), nil
	}
	return jsonResult(fmt.Sprintf("Restored backup %s", key), form)
}

func (s *Server) handleImportBackup(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("backup")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	form, err := s.service.ImportBackupJSON(strings.NewReader(doc))
	if err != nil {
		return s.toolError(ToolImportBackup, err), nil
	}
	return jsonResult(fmt.Sprintf("Imported backup for %q", form.Quote.ClientName), form)
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.service.Info(ctx)
	if err != nil {
		return s.toolError(ToolServerInfo, err), nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(info)), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn().Str("tool", tool).Err(err).Msg("tool call failed")
	return mcp.NewToolResultError(err.Error())
}

// formArg decodes an optional form argument. Omitted fields keep the
// values of an empty form, so a missing "editing" means no edit.
func formArg(request mcp.CallToolRequest, key string) (quote.Form, bool, error) {
	form := quote.NewForm()
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return form, false, nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return form, false, fmt.Errorf("invalid %s argument: %w", key, err)
		}
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, false, fmt.Errorf("invalid %s argument: %w", key, err)
	}
	return form, true, nil
}

func jsonResult(summary string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(summary + "\n\n" + string(data)), nil
}

func (s *Server) formatServerInfo(info *service.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Work directory: %s\n", info.WorkDirectory)
	fmt.Fprintf(&b, "Backup store: %s (%d backup(s))\n", info.Store, info.Backups)
	if info.ImportEnabled {
		fmt.Fprintf(&b, "PDF decoder: %s\n", info.Decoder)
	} else {
		fmt.Fprintf(&b, "PDF import disabled: %s\n", info.ImportError)
	}
	fmt.Fprintf(&b, "Max file size: %d bytes\n\n", info.MaxFileSize)

	if len(info.QuoteFiles) > 0 {
		fmt.Fprintf(&b, "Quote PDFs (%d):\n", len(info.QuoteFiles))
		for i, f := range info.QuoteFiles {
			fmt.Fprintf(&b, "  %d. %s (%d bytes)\n", i+1, f.Name, f.Size)
		}
		if info.Truncated {
			b.WriteString("  ...\n")
		}
	} else {
		b.WriteString("No quote PDFs in the work directory\n")
	}

	b.WriteString("\nTools: ")
	b.WriteString(strings.Join([]string{
		ToolImportPDF, ToolRenderPDF, ToolApply, ToolSaveBackup,
		ToolListBackups, ToolRestoreBackup, ToolImportBackup,
	}, ", "))
	b.WriteString("\n")
	return b.String()
}

// Run serves MCP over the process's stdin and stdout until ctx ends or
// stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunIO(ctx, os.Stdin, os.Stdout)
}

// RunIO serves MCP over the given streams
func (s *Server) RunIO(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info().
		Str("work_directory", s.service.WorkDirectory()).
		Msg("serving MCP over stdio")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// MCPServer exposes the underlying server for transports mounted elsewhere
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
