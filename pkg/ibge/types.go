package ibge

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// OptInt is an optional integer tolerant of the shapes the IBGE APIs emit:
// JSON numbers, numeric strings, and null. Anything unparsable decodes to
// absent rather than failing the whole payload.
type OptInt struct {
	Val int64
	OK  bool
}

// Int returns some(v) as an OptInt.
func Int(v int64) OptInt { return OptInt{Val: v, OK: true} }

// OrZero returns the value, or 0 when absent.
func (o OptInt) OrZero() int64 {
	if !o.OK {
		return 0
	}
	return o.Val
}

func (o *OptInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*o = OptInt{}
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			*o = OptInt{}
			return nil
		}
		s = strings.TrimSpace(s)
	}
	// Ranking frequencies occasionally arrive as floats ("1234.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*o = OptInt{Val: int64(f), OK: true}
		return nil
	}
	*o = OptInt{}
	return nil
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.OK {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, o.Val, 10), nil
}

// NameRecord is one named-entity record from GET /{nome}. The API returns
// an array with zero or one of these.
type NameRecord struct {
	Nome       string            `json:"nome"`
	Sexo       string            `json:"sexo"`
	Localidade string            `json:"localidade"`
	Res        []PeriodFrequency `json:"res"`
}

// PeriodFrequency is one decade observation inside a NameRecord.
type PeriodFrequency struct {
	Periodo    string `json:"periodo"`
	Frequencia OptInt `json:"frequencia"`
}

// RankingPayload is the single object inside the GET /ranking array.
type RankingPayload struct {
	Localidade string        `json:"localidade"`
	Sexo       string        `json:"sexo"`
	Res        []RankingItem `json:"res"`
}

// RankingItem is one ranked name. The rank column has shipped under both
// "ranking" and "rank"; both are decoded and Position picks one.
type RankingItem struct {
	Nome       string `json:"nome"`
	Frequencia OptInt `json:"frequencia"`
	Ranking    OptInt `json:"ranking"`
	Rank       OptInt `json:"rank"`
}

// Position returns the item's rank, preferring "rank" over "ranking".
func (r RankingItem) Position() OptInt {
	if r.Rank.OK {
		return r.Rank
	}
	return r.Ranking
}

// Estado is a federative unit from GET /estados.
type Estado struct {
	ID    int64  `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

// Municipio is a municipality from GET /estados/{id}/municipios.
type Municipio struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// populacaoPayload is the projection response from GET /projecoes/populacao.
type populacaoPayload struct {
	Projecao struct {
		Populacao OptInt `json:"populacao"`
	} `json:"projecao"`
}
