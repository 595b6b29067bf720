package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/censo-nomes/pkg/kit"
	"github.com/hazyhaar/censo-nomes/pkg/localidades"
	"github.com/hazyhaar/censo-nomes/pkg/nomes"
)

// RegisterMCPTools registers the dashboard queries as MCP tools so agents
// can explore naming trends through the same endpoints the browser uses.
func RegisterMCPTools(srv *server.MCPServer, svc *nomes.Service, res *localidades.Resolver, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	eps := newEndpoints(svc, res, logger)

	registerNameSeries(srv, eps)
	registerTopNames(srv, eps)
	registerGrowthCompare(srv, eps)
	registerRankingTotals(srv, eps)
	registerPopulation(srv, eps)
	registerResolveLocalidade(srv, res)
}

func registerNameSeries(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("name_series",
		mcp.WithDescription("Per-decade frequency series for one Brazilian first name (IBGE Censo 2010)."),
		mcp.WithString("nome", mcp.Required(), mcp.Description("The name to look up (e.g. maria)")),
		mcp.WithString("sexo", mcp.Description("Optional sex filter: M or F")),
		mcp.WithString("localidade", mcp.Description("Locality id, default BR (national)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.series, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		nome, _ := args["nome"].(string)
		sexo, err := sexArg(args)
		if err != nil {
			return nil, err
		}
		return &seriesReq{
			Nome:       nome,
			Sexo:       sexo,
			Localidade: localidadeArg(args),
		}, nil
	})
}

func registerTopNames(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("top_names",
		mcp.WithDescription("Top-N most frequent names for a decade/sex/locality, with combined-sex fallback merge."),
		mcp.WithNumber("decada", mcp.Description("Decade start year (e.g. 2000); omit for all decades")),
		mcp.WithString("sexo", mcp.Description("Optional sex filter: M or F")),
		mcp.WithString("localidade", mcp.Description("Locality id, default BR")),
		mcp.WithNumber("qtd", mcp.Description("How many names, default 20, max 200")),
	)

	kit.RegisterMCPTool(srv, tool, eps.ranking, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		sexo, err := sexArg(args)
		if err != nil {
			return nil, err
		}
		return &rankingReq{
			Decada:     intArg(args, "decada", 0),
			Sexo:       sexo,
			Localidade: localidadeArg(args),
			Qtd:        clampTopN(intArg(args, "qtd", 20)),
		}, nil
	})
}

func registerGrowthCompare(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("growth_compare",
		mcp.WithDescription("Decade-over-decade growth comparison of name frequencies: delta, pct and rank change per name."),
		mcp.WithNumber("decada_a", mcp.Required(), mcp.Description("Earlier decade start year (e.g. 1990)")),
		mcp.WithNumber("decada_b", mcp.Required(), mcp.Description("Later decade start year (e.g. 2010)")),
		mcp.WithString("sexo", mcp.Description("Optional sex filter: M or F")),
		mcp.WithString("localidade", mcp.Description("Locality id, default BR")),
		mcp.WithNumber("topn", mcp.Description("Top-N per decade, default 100, max 200")),
		mcp.WithString("modo", mcp.Description("Set mode: intersect (default), only_b or only_a")),
	)

	kit.RegisterMCPTool(srv, tool, eps.growth, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		sexo, err := sexArg(args)
		if err != nil {
			return nil, err
		}
		modo, _ := args["modo"].(string)
		mode, err := nomes.ParseSetMode(modo)
		if err != nil {
			return nil, err
		}
		return &growthReq{
			DecadaA:    intArg(args, "decada_a", 0),
			DecadaB:    intArg(args, "decada_b", 0),
			Sexo:       sexo,
			Localidade: localidadeArg(args),
			TopN:       clampTopN(intArg(args, "topn", 100)),
			Mode:       mode,
		}, nil
	})
}

func registerRankingTotals(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("ranking_totals",
		mcp.WithDescription("Summed M/F top-N frequencies for a decade/locality — the dashboard's KPI totals."),
		mcp.WithNumber("decada", mcp.Description("Decade start year; omit for all decades")),
		mcp.WithString("localidade", mcp.Description("Locality id, default BR")),
		mcp.WithNumber("topn", mcp.Description("Top-N per sex, default 200")),
	)

	kit.RegisterMCPTool(srv, tool, eps.totals, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		return &totalsReq{
			Decada:     intArg(args, "decada", 0),
			Localidade: localidadeArg(args),
			TopN:       clampTopN(intArg(args, "topn", maxTopN)),
		}, nil
	})
}

func registerPopulation(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("population",
		mcp.WithDescription("Current national population projection (IBGE). Failures are reported in the result, not raised."),
	)

	kit.RegisterMCPTool(srv, tool, eps.population, func(mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}

func registerResolveLocalidade(srv *server.MCPServer, res *localidades.Resolver) {
	tool := mcp.NewTool("resolve_localidade",
		mcp.WithDescription("Resolve a UF sigla and optional municipality name to the locality id used by the other tools."),
		mcp.WithString("uf", mcp.Required(), mcp.Description("2-letter UF sigla (e.g. SP)")),
		mcp.WithString("municipio", mcp.Description("Optional municipality name, matched accent-insensitively")),
	)

	resolve := func(ctx context.Context, request any) (any, error) {
		req := request.(*municipioResolveReq)
		var id string
		var err error
		if req.Municipio != "" {
			id, err = res.ResolveMunicipio(ctx, req.UF, req.Municipio)
		} else {
			id, err = res.ResolveUF(ctx, req.UF)
		}
		if err != nil {
			return nil, err
		}
		return map[string]string{"localidade": id}, nil
	}

	kit.RegisterMCPTool(srv, tool, resolve, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		uf, _ := args["uf"].(string)
		if uf == "" {
			return nil, fmt.Errorf("uf is required")
		}
		municipio, _ := args["municipio"].(string)
		return &municipioResolveReq{UF: uf, Municipio: municipio}, nil
	})
}

type municipioResolveReq struct {
	UF        string
	Municipio string
}

// --- argument helpers ---

func sexArg(args map[string]any) (nomes.Sex, error) {
	raw, _ := args["sexo"].(string)
	return nomes.ParseSex(raw)
}

func localidadeArg(args map[string]any) string {
	if v, _ := args["localidade"].(string); v != "" {
		return v
	}
	return "BR"
}

func intArg(args map[string]any, key string, def int) int {
	// MCP JSON numbers arrive as float64.
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}
