// Package ibge is a read-only client for the IBGE public APIs used by the
// dashboard: censos/nomes (frequency + ranking), localidades (estados and
// municípios) and projecoes/populacao.
//
// Every request is a GET with a fixed User-Agent, a bounded timeout and a
// small retry budget with linear backoff. Successful bodies are memoized
// in-process with a TTL and, when a cache path is configured, persisted in
// SQLite so restarts do not hammer the upstream.
package ibge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hazyhaar/censo-nomes/pkg/cache"
)

// Default upstream endpoints.
const (
	DefaultNamesBase       = "https://servicodados.ibge.gov.br/api/v2/censos/nomes"
	DefaultLocalidadesBase = "https://servicodados.ibge.gov.br/api/v1/localidades"
	DefaultPopulacaoURL    = "https://servicodados.ibge.gov.br/api/v1/projecoes/populacao"
)

const defaultUserAgent = "censo-nomes/1.0 (+https://github.com/hazyhaar/censo-nomes)"

// TransportError reports an upstream call that failed after all retries.
// Status is the last HTTP status seen, 0 when the failure was at the
// network layer.
type TransportError struct {
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GET %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("GET %s failed after %d attempts: HTTP %d", e.URL, e.Attempts, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client. The zero value gives sane defaults.
type Options struct {
	NamesBase       string
	LocalidadesBase string
	PopulacaoURL    string
	UserAgent       string
	Retries         int           // attempts per request, default 3
	Backoff         time.Duration // linear: Backoff × attempt, default 500ms
	Timeout         time.Duration // per-request, default 30s
	MemoTTL         time.Duration // in-process body cache, default 30m
	Clock           cache.Clock
	RespCache       *RespCache // optional persistent cache
	Logger          *slog.Logger
}

// Client issues GETs against the IBGE APIs and decodes their payloads.
type Client struct {
	namesBase       string
	localidadesBase string
	populacaoURL    string
	userAgent       string
	retries         int
	backoff         time.Duration
	httpc           *http.Client
	memo            *cache.Store
	memoTTL         time.Duration
	respCache       *RespCache
	logger          *slog.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.NamesBase == "" {
		opts.NamesBase = DefaultNamesBase
	}
	if opts.LocalidadesBase == "" {
		opts.LocalidadesBase = DefaultLocalidadesBase
	}
	if opts.PopulacaoURL == "" {
		opts.PopulacaoURL = DefaultPopulacaoURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = 30 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		namesBase:       opts.NamesBase,
		localidadesBase: opts.LocalidadesBase,
		populacaoURL:    opts.PopulacaoURL,
		userAgent:       opts.UserAgent,
		retries:         opts.Retries,
		backoff:         opts.Backoff,
		httpc:           &http.Client{Timeout: opts.Timeout},
		memo:            cache.New(opts.Clock),
		memoTTL:         opts.MemoTTL,
		respCache:       opts.RespCache,
		logger:          opts.Logger,
	}
}

// NameQuery filters a per-name frequency request.
type NameQuery struct {
	Sexo       string // "M", "F" or empty
	Localidade string // locality id or empty for national
}

// Name fetches the per-decade frequency record for one name. The returned
// slice has zero or one element; zero means the name has no registrations,
// which is not an error.
func (c *Client) Name(ctx context.Context, nome string, q NameQuery) ([]NameRecord, error) {
	params := url.Values{}
	if q.Sexo == "M" || q.Sexo == "F" {
		params.Set("sexo", q.Sexo)
	}
	if q.Localidade != "" {
		params.Set("localidade", q.Localidade)
	}
	var out []NameRecord
	if err := c.getJSON(ctx, c.namesBase+"/"+url.PathEscape(nome), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RankingQuery filters a top-N ranking request. Zero fields are omitted.
type RankingQuery struct {
	Decada     int
	Sexo       string
	Localidade string
	Qtd        int
}

// Ranking fetches a top-N name ranking. The upstream wraps the rows in a
// one-element array; an empty or row-less payload yields nil rows.
func (c *Client) Ranking(ctx context.Context, q RankingQuery) ([]RankingItem, error) {
	params := url.Values{}
	if q.Decada != 0 {
		params.Set("decada", strconv.Itoa(q.Decada))
	}
	if q.Sexo == "M" || q.Sexo == "F" {
		params.Set("sexo", q.Sexo)
	}
	if q.Localidade != "" {
		params.Set("localidade", q.Localidade)
	}
	if q.Qtd > 0 {
		params.Set("qtd", strconv.Itoa(q.Qtd))
	}
	var out []RankingPayload
	if err := c.getJSON(ctx, c.namesBase+"/ranking", params, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Res, nil
}

// Estados fetches the list of federative units.
func (c *Client) Estados(ctx context.Context) ([]Estado, error) {
	var out []Estado
	if err := c.getJSON(ctx, c.localidadesBase+"/estados", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Municipios fetches the municipalities of one estado by its numeric id.
func (c *Client) Municipios(ctx context.Context, estadoID int64) ([]Municipio, error) {
	u := fmt.Sprintf("%s/estados/%d/municipios", c.localidadesBase, estadoID)
	var out []Municipio
	if err := c.getJSON(ctx, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Populacao fetches the national population projection scalar.
func (c *Client) Populacao(ctx context.Context) (int64, error) {
	var out populacaoPayload
	if err := c.getJSON(ctx, c.populacaoURL, nil, &out); err != nil {
		return 0, err
	}
	if !out.Projecao.Populacao.OK {
		return 0, fmt.Errorf("populacao payload missing projecao.populacao")
	}
	return out.Projecao.Populacao.Val, nil
}

// getJSON resolves a body from the memo cache, the persistent cache, or
// the network (in that order) and unmarshals it into v.
func (c *Client) getJSON(ctx context.Context, rawurl string, params url.Values, v any) error {
	full := rawurl
	if len(params) > 0 {
		full += "?" + params.Encode()
	}

	if cached, ok := c.memo.Get(full); ok {
		return json.Unmarshal(cached.([]byte), v)
	}
	if c.respCache != nil {
		if body, ok, err := c.respCache.Get(full); err != nil {
			c.logger.Warn("response cache read failed", "url", full, "error", err)
		} else if ok {
			c.memo.Set(full, body, c.memoTTL)
			return json.Unmarshal(body, v)
		}
	}

	body, err := c.doGet(ctx, full)
	if err != nil {
		return err
	}

	c.memo.Set(full, body, c.memoTTL)
	if c.respCache != nil {
		if err := c.respCache.Put(full, body); err != nil {
			c.logger.Warn("response cache write failed", "url", full, "error", err)
		}
	}
	return json.Unmarshal(body, v)
}

// doGet performs the retried GET. Non-200 statuses count as failures and
// are retried like network errors; the last failure is surfaced as a
// *TransportError.
func (c *Client) doGet(ctx context.Context, full string) ([]byte, error) {
	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * c.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = nil
			lastStatus = resp.StatusCode
			c.logger.Debug("upstream non-200", "url", full, "status", resp.StatusCode, "attempt", attempt)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}
		return body, nil
	}

	return nil, &TransportError{URL: full, Status: lastStatus, Attempts: c.retries, Err: lastErr}
}
