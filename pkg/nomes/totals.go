package nomes

import "context"

// RankingTotals sums the unified M and F top-N frequencies for one
// decade/locality into the dashboard's KPI figures, along with how many
// rows each per-sex ranking actually returned. Decada 0 means all decades.
func (s *Service) RankingTotals(ctx context.Context, decada int, localidade string, topN int) (Totals, error) {
	male, err := s.UnifiedRanking(ctx, decada, SexMale, localidade, topN)
	if err != nil {
		return Totals{}, err
	}
	female, err := s.UnifiedRanking(ctx, decada, SexFemale, localidade, topN)
	if err != nil {
		return Totals{}, err
	}

	var t Totals
	for _, e := range male {
		t.TotalM += e.Frequencia
	}
	for _, e := range female {
		t.TotalF += e.Frequencia
	}
	t.Total = t.TotalM + t.TotalF
	t.RegistrosM = len(male)
	t.RegistrosF = len(female)
	t.Registros = t.RegistrosM + t.RegistrosF
	if t.Total > 0 {
		t.ShareM = float64(t.TotalM) / float64(t.Total) * 100.0
		t.ShareF = float64(t.TotalF) / float64(t.Total) * 100.0
	}
	return t, nil
}
