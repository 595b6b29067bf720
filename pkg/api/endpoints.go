package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/censo-nomes/pkg/kit"
	"github.com/hazyhaar/censo-nomes/pkg/localidades"
	"github.com/hazyhaar/censo-nomes/pkg/nomes"
)

// Shared request/response types used by both HTTP and MCP transports.

type seriesReq struct {
	Nome       string
	Sexo       nomes.Sex
	Localidade string
}

type seriesResponse struct {
	Series []nomes.NameFrequencyRecord `json:"series"`
}

type rankingReq struct {
	Decada     int
	Sexo       nomes.Sex
	Localidade string
	Qtd        int
}

type rankingResponse struct {
	Ranking []nomes.RankingEntry `json:"ranking"`
}

type growthReq struct {
	DecadaA    int
	DecadaB    int
	Sexo       nomes.Sex
	Localidade string
	TopN       int
	Mode       nomes.SetMode
}

type growthResponse struct {
	Rows []nomes.GrowthRow `json:"rows"`
}

type totalsReq struct {
	Decada     int
	Localidade string
	TopN       int
}

type municipiosReq struct {
	UF string
}

type regioesResponse struct {
	Regioes  map[string][]string `json:"regioes"`
	Capitais map[string]string   `json:"capitais"`
}

// endpoints holds every dashboard action, each wrapped with logging.
type endpoints struct {
	series     kit.Endpoint
	ranking    kit.Endpoint
	growth     kit.Endpoint
	totals     kit.Endpoint
	population kit.Endpoint
	estados    kit.Endpoint
	municipios kit.Endpoint
	regioes    kit.Endpoint
}

func newEndpoints(svc *nomes.Service, res *localidades.Resolver, logger *slog.Logger) *endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(logger, name))(ep)
	}
	return &endpoints{
		series:     wrap("series", seriesEndpoint(svc)),
		ranking:    wrap("ranking", rankingEndpoint(svc)),
		growth:     wrap("growth", growthEndpoint(svc)),
		totals:     wrap("totals", totalsEndpoint(svc)),
		population: wrap("population", populationEndpoint(svc)),
		estados:    wrap("estados", estadosEndpoint(res)),
		municipios: wrap("municipios", municipiosEndpoint(res)),
		regioes:    wrap("regioes", regioesEndpoint()),
	}
}

func seriesEndpoint(svc *nomes.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*seriesReq)
		if req.Nome == "" {
			return nil, fmt.Errorf("nome is required")
		}
		series, err := svc.Series(ctx, req.Nome, req.Sexo, req.Localidade)
		if err != nil {
			return nil, err
		}
		if series == nil {
			series = []nomes.NameFrequencyRecord{}
		}
		return seriesResponse{Series: series}, nil
	}
}

func rankingEndpoint(svc *nomes.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*rankingReq)
		ranking, err := svc.UnifiedRanking(ctx, req.Decada, req.Sexo, req.Localidade, req.Qtd)
		if err != nil {
			return nil, err
		}
		if ranking == nil {
			ranking = []nomes.RankingEntry{}
		}
		return rankingResponse{Ranking: ranking}, nil
	}
}

func growthEndpoint(svc *nomes.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*growthReq)
		if req.DecadaA == 0 || req.DecadaB == 0 {
			return nil, fmt.Errorf("decada_a and decada_b are required")
		}
		rows, err := svc.Growth(ctx, req.DecadaA, req.DecadaB, req.Sexo, req.Localidade, req.TopN, req.Mode)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []nomes.GrowthRow{}
		}
		return growthResponse{Rows: rows}, nil
	}
}

func totalsEndpoint(svc *nomes.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*totalsReq)
		return svc.RankingTotals(ctx, req.Decada, req.Localidade, req.TopN)
	}
}

func populationEndpoint(svc *nomes.Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return svc.Population(ctx), nil
	}
}

func estadosEndpoint(res *localidades.Resolver) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return res.Estados(ctx)
	}
}

func municipiosEndpoint(res *localidades.Resolver) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*municipiosReq)
		return res.Municipios(ctx, req.UF)
	}
}

func regioesEndpoint() kit.Endpoint {
	return func(context.Context, any) (any, error) {
		return regioesResponse{
			Regioes:  localidades.Regioes,
			Capitais: localidades.Capitais,
		}, nil
	}
}
