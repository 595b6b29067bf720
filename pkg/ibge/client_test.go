package ibge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Options{
		NamesBase:       srv.URL + "/nomes",
		LocalidadesBase: srv.URL + "/localidades",
		PopulacaoURL:    srv.URL + "/projecoes/populacao",
		Backoff:         time.Millisecond,
	})
	return c, srv
}

func TestName_DecodesPayload(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nomes/maria" {
			t.Errorf("path = %s, want /nomes/maria", r.URL.Path)
		}
		if got := r.URL.Query().Get("sexo"); got != "F" {
			t.Errorf("sexo = %q, want F", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{
			"nome": "MARIA",
			"sexo": "F",
			"res": []map[string]any{
				{"periodo": "1930[", "frequencia": 336477},
				{"periodo": "[1930,1940[", "frequencia": "749053"},
			},
		}})
	}))

	recs, err := c.Name(context.Background(), "maria", NameQuery{Sexo: "F"})
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	res := recs[0].Res
	if len(res) != 2 {
		t.Fatalf("res rows = %d, want 2", len(res))
	}
	if res[0].Frequencia.OrZero() != 336477 {
		t.Errorf("numeric frequencia = %d, want 336477", res[0].Frequencia.OrZero())
	}
	// String-typed frequency must decode too.
	if res[1].Frequencia.OrZero() != 749053 {
		t.Errorf("string frequencia = %d, want 749053", res[1].Frequencia.OrZero())
	}
}

func TestName_EmptyPayloadIsNotAnError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))

	recs, err := c.Name(context.Background(), "zzzz", NameQuery{})
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %d, want 0", len(recs))
	}
}

func TestRanking_RankColumnVariants(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{
			"res": []map[string]any{
				{"nome": "MARIA", "frequencia": 100, "ranking": 1},
				{"nome": "ANA", "frequencia": 90, "rank": 2},
				{"nome": "JOSE", "frequencia": 80},
			},
		}})
	}))

	rows, err := c.Ranking(context.Background(), RankingQuery{Decada: 2000, Qtd: 3})
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if p := rows[0].Position(); !p.OK || p.Val != 1 {
		t.Errorf(`"ranking" column: got %+v, want 1`, p)
	}
	if p := rows[1].Position(); !p.OK || p.Val != 2 {
		t.Errorf(`"rank" column: got %+v, want 2`, p)
	}
	if p := rows[2].Position(); p.OK {
		t.Errorf("missing rank: got %+v, want absent", p)
	}
}

func TestDoGet_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))

	_, err := c.Estados(context.Background())
	if err != nil {
		t.Fatalf("Estados: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoGet_TransportErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Estados(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", te.Status)
	}
	if te.Attempts != 3 || calls.Load() != 3 {
		t.Errorf("attempts = %d (calls %d), want 3", te.Attempts, calls.Load())
	}
}

func TestGetJSON_UserAgentHeader(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, defaultUserAgent)
		}
		w.Write([]byte(`[]`))
	}))
	if _, err := c.Estados(context.Background()); err != nil {
		t.Fatalf("Estados: %v", err)
	}
}

func TestGetJSON_MemoizesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode([]Estado{{ID: 35, Sigla: "SP", Nome: "São Paulo"}})
	}))

	for i := 0; i < 3; i++ {
		ests, err := c.Estados(context.Background())
		if err != nil {
			t.Fatalf("Estados: %v", err)
		}
		if len(ests) != 1 || ests[0].Sigla != "SP" {
			t.Fatalf("estados = %+v", ests)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (memoized)", calls.Load())
	}
}

func TestPopulacao(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projecao":{"populacao":203080756}}`))
	}))

	pop, err := c.Populacao(context.Background())
	if err != nil {
		t.Fatalf("Populacao: %v", err)
	}
	if pop != 203080756 {
		t.Errorf("populacao = %d, want 203080756", pop)
	}
}

func TestPopulacao_MissingField(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projecao":{}}`))
	}))

	if _, err := c.Populacao(context.Background()); err == nil {
		t.Fatal("expected error for missing projecao.populacao")
	}
}
