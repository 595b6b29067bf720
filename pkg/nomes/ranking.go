package nomes

import (
	"context"
	"sort"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

// Ranking fetches one raw top-N ranking, upstream order preserved.
// Frequencies are coerced to integers (unparsable → 0); the rank column
// is normalized whichever way the upstream spelled it.
func (s *Service) Ranking(ctx context.Context, decada int, sexo Sex, localidade string, qtd int) ([]RankingEntry, error) {
	items, err := s.api.Ranking(ctx, ibge.RankingQuery{
		Decada:     decada,
		Sexo:       string(sexo),
		Localidade: localidade,
		Qtd:        qtd,
	})
	if err != nil {
		return nil, err
	}
	entries := make([]RankingEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, RankingEntry{
			Nome:       it.Nome,
			Frequencia: it.Frequencia.OrZero(),
			Rank:       it.Position(),
		})
	}
	return entries, nil
}

// UnifiedRanking returns a top-N ranking, merging per-sex rankings when
// the upstream cannot satisfy a combined-sex request directly.
//
// The fallback fires only for combined-sex queries that came back short:
// M and F top-N are fetched separately, summed by name, re-sorted and
// truncated, with synthetic 1-based ranks. Known limitation: a name
// outside both per-sex top-N lists never enters the merge even if its
// combined frequency would qualify, so merged totals can under-count.
func (s *Service) UnifiedRanking(ctx context.Context, decada int, sexo Sex, localidade string, qtd int) ([]RankingEntry, error) {
	direct, err := s.Ranking(ctx, decada, sexo, localidade, qtd)
	if err != nil {
		return nil, err
	}
	if len(direct) >= qtd {
		return direct[:qtd], nil
	}
	if sexo != SexUnspecified {
		return direct, nil
	}

	male, err := s.Ranking(ctx, decada, SexMale, localidade, qtd)
	if err != nil {
		return nil, err
	}
	female, err := s.Ranking(ctx, decada, SexFemale, localidade, qtd)
	if err != nil {
		return nil, err
	}
	if len(male) == 0 && len(female) == 0 {
		return direct, nil
	}

	merged := mergeRankings(male, female)
	if len(merged) > qtd {
		merged = merged[:qtd]
	}
	for i := range merged {
		merged[i].Rank = ibge.Int(int64(i + 1))
	}
	s.logger.Debug("unified ranking fell back to per-sex merge",
		"decada", decada, "localidade", localidade,
		"direct", len(direct), "merged", len(merged))
	return merged, nil
}

// mergeRankings sums frequencies by name across the two per-sex lists and
// sorts descending by the sum. First-seen order breaks ties.
func mergeRankings(male, female []RankingEntry) []RankingEntry {
	sum := make(map[string]int64, len(male)+len(female))
	order := make([]string, 0, len(male)+len(female))
	for _, list := range [][]RankingEntry{male, female} {
		for _, e := range list {
			if _, seen := sum[e.Nome]; !seen {
				order = append(order, e.Nome)
			}
			sum[e.Nome] += e.Frequencia
		}
	}

	merged := make([]RankingEntry, 0, len(order))
	for _, nome := range order {
		merged = append(merged, RankingEntry{Nome: nome, Frequencia: sum[nome]})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Frequencia > merged[j].Frequencia
	})
	return merged
}
