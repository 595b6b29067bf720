package nomes

import (
	"context"
	"fmt"
	"sort"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

// Growth compares two decades' top-N rankings and returns one row per
// name in the selected set, sorted descending by delta (stable: ties keep
// assembly order).
//
// Intersection inner-joins the two top-N lists. OnlyB takes every name of
// B's top-N and backfills its decade-A frequency with an individual
// per-name fetch (rankA stays absent — A's top-N was never consulted);
// OnlyA is symmetric. Per-name fetch failures count as frequency 0 so one
// upstream hiccup cannot abort a long comparison.
func (s *Service) Growth(ctx context.Context, decA, decB int, sexo Sex, localidade string, topN int, mode SetMode) ([]GrowthRow, error) {
	var rows []GrowthRow

	switch mode {
	case Intersection:
		a, err := s.Ranking(ctx, decA, sexo, localidade, topN)
		if err != nil {
			return nil, err
		}
		b, err := s.Ranking(ctx, decB, sexo, localidade, topN)
		if err != nil {
			return nil, err
		}
		if len(a) == 0 || len(b) == 0 {
			return nil, nil
		}
		byName := make(map[string]RankingEntry, len(b))
		for _, e := range b {
			if _, dup := byName[e.Nome]; !dup {
				byName[e.Nome] = e
			}
		}
		for _, ea := range a {
			eb, ok := byName[ea.Nome]
			if !ok {
				continue
			}
			rows = append(rows, GrowthRow{
				Nome:  ea.Nome,
				FreqA: ea.Frequencia,
				FreqB: eb.Frequencia,
				RankA: ea.Rank,
				RankB: eb.Rank,
			})
		}

	case OnlyB:
		b, err := s.Ranking(ctx, decB, sexo, localidade, topN)
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, nil
		}
		freqsA := s.frequenciesFor(ctx, names(b), decA, sexo, localidade)
		for _, eb := range b {
			rows = append(rows, GrowthRow{
				Nome:  eb.Nome,
				FreqA: freqsA[eb.Nome],
				FreqB: eb.Frequencia,
				RankB: eb.Rank,
			})
		}

	case OnlyA:
		a, err := s.Ranking(ctx, decA, sexo, localidade, topN)
		if err != nil {
			return nil, err
		}
		if len(a) == 0 {
			return nil, nil
		}
		freqsB := s.frequenciesFor(ctx, names(a), decB, sexo, localidade)
		for _, ea := range a {
			rows = append(rows, GrowthRow{
				Nome:  ea.Nome,
				FreqA: ea.Frequencia,
				FreqB: freqsB[ea.Nome],
				RankA: ea.Rank,
			})
		}

	default:
		return nil, fmt.Errorf("unknown set mode %q", mode)
	}

	for i := range rows {
		finishRow(&rows[i])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Delta > rows[j].Delta
	})
	return rows, nil
}

// frequenciesFor fetches each name's frequency in one decade, one call at
// a time. Failures are logged and counted as zero; callers that need to
// tell a true zero from a failed fetch must fetch the name individually.
func (s *Service) frequenciesFor(ctx context.Context, names []string, decada int, sexo Sex, localidade string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for i, nome := range names {
		series, err := s.Series(ctx, nome, sexo, localidade)
		if err != nil {
			s.logger.Warn("per-name fetch failed, counting as zero",
				"nome", nome, "decada", decada, "error", err)
			out[nome] = 0
		} else {
			out[nome] = FrequencyIn(series, decada)
		}
		if i < len(names)-1 {
			s.pause(ctx)
		}
	}
	return out
}

func names(entries []RankingEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Nome
	}
	return out
}

// finishRow derives delta, pct and deltaRank from the joined frequencies.
func finishRow(row *GrowthRow) {
	if row.FreqA < 0 {
		row.FreqA = 0
	}
	if row.FreqB < 0 {
		row.FreqB = 0
	}
	row.Delta = float64(row.FreqB - row.FreqA)
	if row.FreqA > 0 {
		pct := row.Delta / float64(row.FreqA) * 100.0
		row.Pct = &pct
	}
	if row.RankA.OK && row.RankB.OK {
		row.DeltaRank = ibge.Int(row.RankA.Val - row.RankB.Val)
	}
}
