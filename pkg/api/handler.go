// Package api exposes the dashboard queries over HTTP and MCP. Both
// transports dispatch to the same kit.Endpoints; this file is the HTTP
// side, consumed directly by the browser frontend.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
	"github.com/hazyhaar/censo-nomes/pkg/localidades"
	"github.com/hazyhaar/censo-nomes/pkg/nomes"
)

// The UI sliders stop at 200; the API enforces the same ceiling.
const maxTopN = 200

// NewRouter returns an http.Handler with all dashboard API routes.
func NewRouter(svc *nomes.Service, res *localidades.Resolver, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		eps:      newEndpoints(svc, res, logger),
		resolver: res,
	}

	mux.HandleFunc("GET /v1/series/{nome}", h.handleSeries)
	mux.HandleFunc("GET /v1/ranking", h.handleRanking)
	mux.HandleFunc("GET /v1/growth", h.handleGrowth)
	mux.HandleFunc("GET /v1/totals", h.handleTotals)
	mux.HandleFunc("GET /v1/population", h.handlePopulation)
	mux.HandleFunc("GET /v1/estados", h.handleEstados)
	mux.HandleFunc("GET /v1/estados/{uf}/municipios", h.handleMunicipios)
	mux.HandleFunc("GET /v1/regioes", h.handleRegioes)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

type handler struct {
	eps      *endpoints
	resolver *localidades.Resolver
}

// resolveLocality turns ?uf= / ?municipio= / ?localidade= into the opaque
// locality id the nomes API expects. Default scope is national ("BR").
func (h *handler) resolveLocality(r *http.Request) (string, error) {
	q := r.URL.Query()
	if uf := q.Get("uf"); uf != "" {
		if mun := q.Get("municipio"); mun != "" {
			return h.resolver.ResolveMunicipio(r.Context(), uf, mun)
		}
		return h.resolver.ResolveUF(r.Context(), uf)
	}
	if loc := q.Get("localidade"); loc != "" {
		return loc, nil
	}
	return "BR", nil
}

func (h *handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	sexo, err := nomes.ParseSex(r.URL.Query().Get("sexo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	localidade, err := h.resolveLocality(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp, err := h.eps.series(r.Context(), &seriesReq{
		Nome:       r.PathValue("nome"),
		Sexo:       sexo,
		Localidade: localidade,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sexo, err := nomes.ParseSex(q.Get("sexo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decada, ok := intParam(w, q.Get("decada"), 0)
	if !ok {
		return
	}
	qtd, ok := intParam(w, q.Get("qtd"), 20)
	if !ok {
		return
	}
	localidade, err := h.resolveLocality(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp, err := h.eps.ranking(r.Context(), &rankingReq{
		Decada:     decada,
		Sexo:       sexo,
		Localidade: localidade,
		Qtd:        clampTopN(qtd),
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleGrowth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sexo, err := nomes.ParseSex(q.Get("sexo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := nomes.ParseSetMode(q.Get("modo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decA, ok := intParam(w, q.Get("decada_a"), 0)
	if !ok {
		return
	}
	decB, ok := intParam(w, q.Get("decada_b"), 0)
	if !ok {
		return
	}
	if decA == 0 || decB == 0 {
		writeError(w, http.StatusBadRequest, "decada_a and decada_b are required")
		return
	}
	topN, ok := intParam(w, q.Get("topn"), 100)
	if !ok {
		return
	}
	localidade, err := h.resolveLocality(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp, err := h.eps.growth(r.Context(), &growthReq{
		DecadaA:    decA,
		DecadaB:    decB,
		Sexo:       sexo,
		Localidade: localidade,
		TopN:       clampTopN(topN),
		Mode:       mode,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	decada, ok := intParam(w, q.Get("decada"), 0)
	if !ok {
		return
	}
	topN, ok := intParam(w, q.Get("topn"), maxTopN)
	if !ok {
		return
	}
	localidade, err := h.resolveLocality(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp, err := h.eps.totals(r.Context(), &totalsReq{
		Decada:     decada,
		Localidade: localidade,
		TopN:       clampTopN(topN),
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handlePopulation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.population(r.Context(), nil)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleEstados(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.estados(r.Context(), nil)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleMunicipios(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.municipios(r.Context(), &municipiosReq{UF: r.PathValue("uf")})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRegioes(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.regioes(r.Context(), nil)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// --- helpers ---

// intParam parses an optional integer query parameter, writing a 400 and
// returning ok=false when the value is present but malformed.
func intParam(w http.ResponseWriter, raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integer parameter: "+raw)
		return 0, false
	}
	return v, true
}

func clampTopN(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxTopN {
		return maxTopN
	}
	return n
}

// writeFailure maps domain errors to status codes: unknown localities are
// the user's selection to fix (404), exhausted upstream retries are a bad
// gateway (502), anything else is a 500.
func writeFailure(w http.ResponseWriter, err error) {
	var te *ibge.TransportError
	switch {
	case errors.Is(err, localidades.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &te):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
