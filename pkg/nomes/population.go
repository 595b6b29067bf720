package nomes

import "context"

// Population fetches the national population projection. Any failure is
// captured in the snapshot rather than returned: the figure is a
// supplementary KPI and must never block the rest of the dashboard.
func (s *Service) Population(ctx context.Context) PopulationSnapshot {
	pop, err := s.api.Populacao(ctx)
	if err != nil {
		s.logger.Warn("population projection unavailable", "error", err)
		return PopulationSnapshot{OK: false, ErrorMessage: err.Error()}
	}
	return PopulationSnapshot{OK: true, Population: pop}
}
