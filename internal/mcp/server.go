package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/mealtrace/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"report", "snapshot"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"report_foods": {
		def:     foodsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFoods },
	},
	"report_meals": {
		def:     mealsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMeals },
	},
	"report_weekly_foods": {
		def:     weeklyFoodsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWeeklyFoods },
	},
	"report_weekly_slots": {
		def:     weeklySlotsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWeeklySlots },
	},
	"snapshot_write": {
		def:     snapshotWriteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnapshot },
	},
	"snapshot_runs": {
		def:     snapshotRunsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRuns },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "report_meals" → "report").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the mealtrace tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mealtrace",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(cfg)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(cfg, version))
}
