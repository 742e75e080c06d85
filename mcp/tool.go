// Package mcp exposes the stock agent's tool registry over the Model
// Context Protocol, so MCP clients such as Claude Desktop can discover
// and call the market data and document search tools directly.
//
//	registry := tool.NewRegistry()
//	stocktools.Register(registry, market.NewClient(), retriever)
//
//	if err := mcp.ServeStdio(registry); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToMCPTool converts a registry Tool to an MCP Tool. The Tool's JSON
// schema is passed through unchanged as the MCP input schema.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// ToMCPTools converts a slice of registry Tools to MCP Tools.
func ToMCPTools(tools []ai.Tool) []mcp.Tool {
	result := make([]mcp.Tool, len(tools))
	for i, t := range tools {
		result[i] = ToMCPTool(t)
	}
	return result
}

// ToMCPCallToolResult converts a ToolResult to an MCP CallToolResult.
func ToMCPCallToolResult(result ai.ToolResult) *mcp.CallToolResult {
	if result.IsError {
		return mcp.NewToolResultError(result.Content)
	}
	return mcp.NewToolResultText(result.Content)
}
