// Package localidades resolves human-readable region selections (UF siglas,
// municipality names) to the opaque locality ids the nomes API filters on,
// and back. Reference lists are fetched once and cached with a TTL; no
// other package talks to the localidades API directly.
package localidades

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/censo-nomes/pkg/cache"
	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

// ErrNotFound reports that a sigla or municipality name matched nothing.
// Callers should prompt the user to adjust the selection, not crash.
var ErrNotFound = errors.New("localidade not found")

// Source is the subset of the IBGE client the resolver needs.
type Source interface {
	Estados(ctx context.Context) ([]ibge.Estado, error)
	Municipios(ctx context.Context, estadoID int64) ([]ibge.Municipio, error)
}

// Options configures a Resolver.
type Options struct {
	EstadosTTL    time.Duration // default 24h
	MunicipiosTTL time.Duration // default 24h
	Clock         cache.Clock
	Logger        *slog.Logger
}

// Resolver caches estados and per-UF municípios and serves lookups.
type Resolver struct {
	src           Source
	store         *cache.Store
	estadosTTL    time.Duration
	municipiosTTL time.Duration
	logger        *slog.Logger
}

// New creates a Resolver reading from src.
func New(src Source, opts Options) *Resolver {
	if opts.EstadosTTL <= 0 {
		opts.EstadosTTL = 24 * time.Hour
	}
	if opts.MunicipiosTTL <= 0 {
		opts.MunicipiosTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		src:           src,
		store:         cache.New(opts.Clock),
		estadosTTL:    opts.EstadosTTL,
		municipiosTTL: opts.MunicipiosTTL,
		logger:        opts.Logger,
	}
}

// Estados returns the federative units sorted by display name.
func (r *Resolver) Estados(ctx context.Context) ([]ibge.Estado, error) {
	if v, ok := r.store.Get("estados"); ok {
		return v.([]ibge.Estado), nil
	}
	ests, err := r.src.Estados(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch estados: %w", err)
	}
	sort.Slice(ests, func(i, j int) bool { return ests[i].Nome < ests[j].Nome })
	r.store.Set("estados", ests, r.estadosTTL)
	return ests, nil
}

// Municipios returns the municipalities of one UF sorted by name.
func (r *Resolver) Municipios(ctx context.Context, sigla string) ([]ibge.Municipio, error) {
	key := "municipios:" + strings.ToUpper(sigla)
	if v, ok := r.store.Get(key); ok {
		return v.([]ibge.Municipio), nil
	}

	est, err := r.estadoBySigla(ctx, sigla)
	if err != nil {
		return nil, err
	}
	muns, err := r.src.Municipios(ctx, est.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch municipios %s: %w", sigla, err)
	}
	sort.Slice(muns, func(i, j int) bool { return muns[i].Nome < muns[j].Nome })
	r.store.Set(key, muns, r.municipiosTTL)
	return muns, nil
}

// ResolveUF maps a 2-letter sigla (any case) to its locality id.
func (r *Resolver) ResolveUF(ctx context.Context, sigla string) (string, error) {
	est, err := r.estadoBySigla(ctx, sigla)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(est.ID, 10), nil
}

// ResolveMunicipio maps (UF, municipality name) to a locality id. An exact
// folded match wins; otherwise the first folded-substring match is taken.
func (r *Resolver) ResolveMunicipio(ctx context.Context, sigla, nome string) (string, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return "", ErrNotFound
	}
	muns, err := r.Municipios(ctx, sigla)
	if err != nil {
		return "", err
	}
	if len(muns) == 0 {
		return "", ErrNotFound
	}

	folded := Fold(nome)
	for _, m := range muns {
		if Fold(m.Nome) == folded {
			return strconv.FormatInt(m.ID, 10), nil
		}
	}
	for _, m := range muns {
		if strings.Contains(Fold(m.Nome), folded) {
			return strconv.FormatInt(m.ID, 10), nil
		}
	}
	return "", ErrNotFound
}

// SiglaByID is the inverse of ResolveUF. ok is false when the id is not a
// known estado id (a municipality id, or not numeric at all); that is an
// absent result, not an error.
func (r *Resolver) SiglaByID(ctx context.Context, localidadeID string) (string, bool, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(localidadeID), 10, 64)
	if err != nil {
		return "", false, nil
	}
	ests, err := r.Estados(ctx)
	if err != nil {
		return "", false, err
	}
	for _, est := range ests {
		if est.ID == id {
			return est.Sigla, true, nil
		}
	}
	return "", false, nil
}

func (r *Resolver) estadoBySigla(ctx context.Context, sigla string) (ibge.Estado, error) {
	sigla = strings.ToUpper(strings.TrimSpace(sigla))
	if sigla == "" {
		return ibge.Estado{}, ErrNotFound
	}
	ests, err := r.Estados(ctx)
	if err != nil {
		return ibge.Estado{}, err
	}
	for _, est := range ests {
		if est.Sigla == sigla {
			return est, nil
		}
	}
	return ibge.Estado{}, fmt.Errorf("uf %s: %w", sigla, ErrNotFound)
}
