package nomes

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

var yearRe = regexp.MustCompile(`\d{4}`)

// Series fetches the per-decade frequency series for one name. The name
// is case-folded before querying. An empty result means the name has no
// historical registrations and is not an error. Rows whose período label
// has no parsable 4-digit year are kept (callers display raw períodos)
// and sorted after all dated rows.
func (s *Service) Series(ctx context.Context, nome string, sexo Sex, localidade string) ([]NameFrequencyRecord, error) {
	nome = strings.ToLower(strings.TrimSpace(nome))

	recs, err := s.api.Name(ctx, nome, ibge.NameQuery{Sexo: string(sexo), Localidade: localidade})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	item := recs[0]

	// Sex label: the caller's pin wins, then the payload's own value.
	sexLabel := string(sexo)
	if sexLabel == "" {
		sexLabel = item.Sexo
	}
	if sexLabel == "" {
		sexLabel = "Todos"
	}

	rows := make([]NameFrequencyRecord, 0, len(item.Res))
	for _, res := range item.Res {
		row := NameFrequencyRecord{
			Nome:       item.Nome,
			Sexo:       sexLabel,
			Periodo:    res.Periodo,
			Frequencia: res.Frequencia,
		}
		if m := yearRe.FindString(res.Periodo); m != "" {
			y, _ := strconv.ParseInt(m, 10, 64)
			row.Decada = ibge.Int(y)
		}
		rows = append(rows, row)
	}

	// Ascending by decade start, undated rows last, original order among ties.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Decada, rows[j].Decada
		if a.OK != b.OK {
			return a.OK
		}
		return a.OK && a.Val < b.Val
	})
	return rows, nil
}

// FrequencyIn returns the frequency for one decade of a fetched series,
// 0 when the decade is absent or its value was unparsable.
func FrequencyIn(series []NameFrequencyRecord, decada int) int64 {
	for _, row := range series {
		if row.Decada.OK && row.Decada.Val == int64(decada) {
			return row.Frequencia.OrZero()
		}
	}
	return 0
}
