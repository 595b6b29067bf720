// Package nomes is the aggregation and evolution-comparison engine over
// the IBGE censos/nomes data: per-name decade series, unified top-N
// rankings with a combined-sex fallback merge, and two-decade growth
// comparisons under three set-membership policies.
package nomes

import (
	"fmt"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

// Sex filters a query. Empty means both sexes.
type Sex string

const (
	SexUnspecified Sex = ""
	SexMale        Sex = "M"
	SexFemale      Sex = "F"
)

// ParseSex validates a user-supplied sex filter.
func ParseSex(s string) (Sex, error) {
	switch s {
	case "", "Todos", "todos":
		return SexUnspecified, nil
	case "M", "m":
		return SexMale, nil
	case "F", "f":
		return SexFemale, nil
	}
	return SexUnspecified, fmt.Errorf("invalid sexo %q (want M, F or empty)", s)
}

// NameFrequencyRecord is one (name, sex, decade) observation. Decada is
// absent when the período label carries no 4-digit year; Frequencia is
// absent when the upstream value was unparsable. Raw-series consumers can
// therefore tell "no data" from "zero occurrences".
type NameFrequencyRecord struct {
	Nome       string      `json:"nome"`
	Sexo       string      `json:"sexo"`
	Periodo    string      `json:"periodo"`
	Decada     ibge.OptInt `json:"decada"`
	Frequencia ibge.OptInt `json:"frequencia"`
}

// RankingEntry is one row of a top-N ranking. Rank is absent when the
// upstream omitted it; synthesized ranks from the fallback merge are
// always present and 1-based.
type RankingEntry struct {
	Nome       string      `json:"nome"`
	Frequencia int64       `json:"frequencia"`
	Rank       ibge.OptInt `json:"rank"`
}

// SetMode selects which names take part in a two-decade comparison.
type SetMode string

const (
	// Intersection keeps names present in both decades' top-N lists.
	Intersection SetMode = "intersect"
	// OnlyB keeps every name of decade B's top-N, backfilling decade A
	// frequencies per name.
	OnlyB SetMode = "only_b"
	// OnlyA keeps every name of decade A's top-N, backfilling decade B
	// frequencies per name.
	OnlyA SetMode = "only_a"
)

// ParseSetMode validates a user-supplied set mode.
func ParseSetMode(s string) (SetMode, error) {
	switch SetMode(s) {
	case Intersection, OnlyB, OnlyA:
		return SetMode(s), nil
	case "":
		return Intersection, nil
	}
	return "", fmt.Errorf("invalid set mode %q (want intersect, only_b or only_a)", s)
}

// GrowthRow is one name's delta between two decades. Pct is nil when
// FreqA is zero — never a fabricated infinity. DeltaRank (rankA−rankB,
// positive means the name climbed) is absent unless both ranks are known.
type GrowthRow struct {
	Nome      string      `json:"nome"`
	FreqA     int64       `json:"freq_a"`
	FreqB     int64       `json:"freq_b"`
	RankA     ibge.OptInt `json:"rank_a"`
	RankB     ibge.OptInt `json:"rank_b"`
	Delta     float64     `json:"delta"`
	Pct       *float64    `json:"pct"`
	DeltaRank ibge.OptInt `json:"delta_rank"`
}

// PopulationSnapshot is the national projection scalar with explicit
// success/failure signaling; a failed fetch is data, not an error.
type PopulationSnapshot struct {
	OK           bool   `json:"ok"`
	Population   int64  `json:"population,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Totals are the summed-frequency KPIs over the unified M and F top-N
// rankings, plus the rows-returned counts per sex.
type Totals struct {
	TotalM     int64   `json:"total_m"`
	TotalF     int64   `json:"total_f"`
	Total      int64   `json:"total"`
	RegistrosM int     `json:"registros_m"`
	RegistrosF int     `json:"registros_f"`
	Registros  int     `json:"registros"`
	ShareM     float64 `json:"share_m"` // percent of Total, 0 when Total is 0
	ShareF     float64 `json:"share_f"`
}
