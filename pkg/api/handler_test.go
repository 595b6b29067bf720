package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
	"github.com/hazyhaar/censo-nomes/pkg/localidades"
	"github.com/hazyhaar/censo-nomes/pkg/nomes"
)

// fakeBackend implements both nomes.Upstream and localidades.Source.
type fakeBackend struct {
	rankingQueries []ibge.RankingQuery
	popErr         error
}

func (f *fakeBackend) Name(_ context.Context, nome string, _ ibge.NameQuery) ([]ibge.NameRecord, error) {
	if nome != "maria" {
		return nil, nil
	}
	return []ibge.NameRecord{{
		Nome: "MARIA",
		Sexo: "F",
		Res: []ibge.PeriodFrequency{
			{Periodo: "[2000,2010[", Frequencia: ibge.Int(1_111_301)},
		},
	}}, nil
}

func (f *fakeBackend) Ranking(_ context.Context, q ibge.RankingQuery) ([]ibge.RankingItem, error) {
	f.rankingQueries = append(f.rankingQueries, q)
	return []ibge.RankingItem{
		{Nome: "MARIA", Frequencia: ibge.Int(900), Ranking: ibge.Int(1)},
		{Nome: "JOSE", Frequencia: ibge.Int(800), Ranking: ibge.Int(2)},
	}, nil
}

func (f *fakeBackend) Populacao(context.Context) (int64, error) {
	if f.popErr != nil {
		return 0, f.popErr
	}
	return 203_000_000, nil
}

func (f *fakeBackend) Estados(context.Context) ([]ibge.Estado, error) {
	return []ibge.Estado{{ID: 35, Sigla: "SP", Nome: "São Paulo"}}, nil
}

func (f *fakeBackend) Municipios(_ context.Context, estadoID int64) ([]ibge.Municipio, error) {
	return []ibge.Municipio{{ID: 3550308, Nome: "São Paulo"}}, nil
}

func newTestRouter(f *fakeBackend) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	svc := nomes.NewService(f, nomes.Options{Logger: logger})
	res := localidades.New(f, localidades.Options{Logger: logger})
	return NewRouter(svc, res, logger)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleSeries(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/series/maria")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Series []nomes.NameFrequencyRecord `json:"series"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Series) != 1 || resp.Series[0].Nome != "MARIA" {
		t.Errorf("series = %+v", resp.Series)
	}
}

func TestHandleSeries_UnknownNameIsEmptyArray(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/series/zzyzx")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"series\":[]}\n" {
		t.Errorf("body = %q, want empty array not null", got)
	}
}

func TestHandleRanking_ResolvesUF(t *testing.T) {
	f := &fakeBackend{}
	h := newTestRouter(f)

	rec := get(t, h, "/v1/ranking?decada=2010&uf=sp&qtd=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(f.rankingQueries) == 0 {
		t.Fatal("no upstream ranking query issued")
	}
	if q := f.rankingQueries[0]; q.Localidade != "35" {
		t.Errorf("localidade = %q, want resolved id 35", q.Localidade)
	}
}

func TestHandleRanking_UnknownUF(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/ranking?uf=xx")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleRanking_InvalidParams(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	if rec := get(t, h, "/v1/ranking?sexo=X"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad sexo: status = %d, want 400", rec.Code)
	}
	if rec := get(t, h, "/v1/ranking?decada=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad decada: status = %d, want 400", rec.Code)
	}
}

func TestHandleGrowth_RequiresBothDecades(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/growth?decada_a=1990")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGrowth(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/growth?decada_a=1990&decada_b=2010&modo=intersect")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Rows []nomes.GrowthRow `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Same two names in both decades: full intersection, zero deltas.
	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(resp.Rows))
	}
	for _, row := range resp.Rows {
		if row.Delta != 0 {
			t.Errorf("%s delta = %v, want 0", row.Nome, row.Delta)
		}
	}
}

func TestHandlePopulation_FailureIsStill200(t *testing.T) {
	h := newTestRouter(&fakeBackend{popErr: errors.New("upstream timed out")})

	rec := get(t, h, "/v1/population")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (snapshot carries the failure)", rec.Code)
	}
	var snap nomes.PopulationSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.OK || snap.ErrorMessage == "" {
		t.Errorf("snapshot = %+v, want ok=false with message", snap)
	}
}

func TestHandleRegioes(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := get(t, h, "/v1/regioes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Regioes  map[string][]string `json:"regioes"`
		Capitais map[string]string   `json:"capitais"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Regioes["Sudeste"]) != 4 {
		t.Errorf("Sudeste = %v", resp.Regioes["Sudeste"])
	}
	if resp.Capitais["São Paulo"] != "SP" {
		t.Errorf("capitais = %v", resp.Capitais)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&fakeBackend{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/ranking", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}
