package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/services"
)

type listChainsTool struct {
	chainService services.ChainService
}

func NewListChainsTool(chainService services.ChainService) *listChainsTool {
	return &listChainsTool{chainService: chainService}
}

func (t *listChainsTool) GetTool() mcp.Tool {
	return mcp.NewTool("list_chains",
		mcp.WithDescription("List the chains tables can be imported from or deployed to, with their registry contract and validator"),
		mcp.WithBoolean("testnet",
			mcp.Description("Only list testnets (true) or mainnets (false). Optional."),
		),
	)
}

func (t *listChainsTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		testnet, filter := args["testnet"].(bool)

		chains := []services.ChainInfo{}
		for _, c := range t.chainService.ListChains() {
			if filter && c.Testnet != testnet {
				continue
			}
			chains = append(chains, c)
		}

		return jsonResult("Supported chains: ", map[string]any{
			"chains": chains,
			"total":  len(chains),
		}), nil
	}
}
