package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"animarr/internal/config"
	"animarr/internal/logging"
	"animarr/internal/metadata"
	"animarr/internal/services"
	"animarr/internal/store"
	"animarr/internal/template"
)

// Effective is the fully resolved acquisition profile for one title.
// It is derived on demand and never persisted.
type Effective struct {
	TitleID             int64
	Enabled             bool
	SavePath            string
	Query               string
	QueryTerms          []string
	QuerySynthesized    bool
	Includes            []string
	Excludes            []string
	PreferredResolution string
	PreferredSubgroup   string
	Variables           template.Variables
}

// Resolver merges per-title settings, global defaults, and metadata into
// effective acquisition profiles. Resolution is read-only.
type Resolver struct {
	store   *store.Store
	tvdb    metadata.Provider
	tmdb    metadata.Provider
	saveDir string
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock overrides the resolver's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver builds a Resolver. Metadata providers may be nil.
func NewResolver(st *store.Store, cfg *config.Config, tvdb, tmdb metadata.Provider, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	resolver := &Resolver{
		store:   st,
		tvdb:    tvdb,
		tmdb:    tmdb,
		saveDir: cfg.Paths.SaveDir,
		logger:  logger.With(logging.FieldComponent, "settings"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// Resolve produces the effective profile for a title id.
func (r *Resolver) Resolve(ctx context.Context, titleID int64) (*Effective, error) {
	title, err := r.store.GetTitle(ctx, titleID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "settings", "resolve", "load title", err)
	}
	if title == nil {
		return nil, services.Wrap(services.ErrNotFound, "settings", "resolve",
			fmt.Sprintf("title %d not in catalog", titleID), nil)
	}

	perTitle, err := r.store.GetSettings(ctx, titleID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "settings", "resolve", "load title settings", err)
	}
	if perTitle == nil {
		perTitle = &store.Settings{TitleID: titleID}
	}
	global, err := r.store.GlobalSettings(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "settings", "resolve", "load global settings", err)
	}

	vars, err := r.buildVariables(ctx, title, perTitle)
	if err != nil {
		return nil, err
	}

	effective := &Effective{
		TitleID:   titleID,
		Enabled:   perTitle.Enabled,
		Includes:  trimAll(perTitle.Includes),
		Excludes:  trimAll(perTitle.Excludes),
		Variables: vars,
	}
	if len(effective.Includes) == 0 {
		effective.Includes = trimAll(global.Includes)
	}
	if len(effective.Excludes) == 0 {
		effective.Excludes = trimAll(global.Excludes)
	}

	effective.SavePath = r.resolveSavePath(perTitle, global, vars)
	effective.Query, effective.QueryTerms, effective.QuerySynthesized = resolveQuery(title, perTitle, global, vars)

	resolution := firstNonEmpty(perTitle.PreferredResolution, global.PreferredResolution)
	if resolution != "" {
		normalized, err := NormalizeResolution(resolution)
		if err != nil {
			return nil, err
		}
		effective.PreferredResolution = normalized
	}
	effective.PreferredSubgroup = firstNonEmpty(perTitle.PreferredSubgroup, global.PreferredSubgroup)

	return effective, nil
}

// resolveSavePath applies the precedence chain: explicit per-title path,
// rendered global path template, global default path, configured save dir.
func (r *Resolver) resolveSavePath(perTitle, global *store.Settings, vars template.Variables) string {
	if path := strings.TrimSpace(perTitle.SavePath); path != "" {
		return path
	}
	if tmpl := firstNonEmpty(perTitle.SavePathTemplate, global.SavePathTemplate); tmpl != "" {
		rendered := template.RenderPath(tmpl, vars)
		if !template.HasUnresolved(rendered) {
			return rendered
		}
		r.logger.Warn("save path template left unresolved tokens, falling back",
			"template", tmpl, "rendered", rendered)
	}
	if path := strings.TrimSpace(global.SavePath); path != "" {
		return path
	}
	return r.saveDir
}

// resolveQuery applies: explicit per-title query, synthesized name-variant
// query, rendered global query template, then the primary display name.
func resolveQuery(title *store.Title, perTitle, global *store.Settings, vars template.Variables) (string, []string, bool) {
	if query := strings.TrimSpace(perTitle.SearchQuery); query != "" {
		return query, []string{query}, false
	}
	if perTitle.AutoQueryFromSynonyms {
		if variants := title.NameVariants(); len(variants) > 0 {
			return strings.Join(variants, "|"), variants, true
		}
	}
	if tmpl := strings.TrimSpace(global.SearchQueryTemplate); tmpl != "" {
		rendered := template.Render(tmpl, vars)
		if !template.HasUnresolved(rendered) {
			return rendered, []string{rendered}, false
		}
	}
	primary := title.PrimaryName()
	if primary == "" {
		return "", nil, false
	}
	return primary, []string{primary}, false
}

func (r *Resolver) buildVariables(ctx context.Context, title *store.Title, perTitle *store.Settings) (template.Variables, error) {
	vars := template.Merge(template.DateVariables(r.now()), titleVariables(title))

	if r.tvdb != nil && perTitle.TVDBID != nil {
		record, err := r.tvdb.Series(ctx, *perTitle.TVDBID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			mergeProviderVariables(vars, "tvdb", record, perTitle.TVDBSeason)
		}
	}
	if r.tmdb != nil && perTitle.TMDBID != nil {
		record, err := r.tmdb.Series(ctx, *perTitle.TMDBID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			mergeProviderVariables(vars, "tmdb", record, perTitle.TMDBSeason)
		}
	}
	return vars, nil
}

func titleVariables(title *store.Title) template.Variables {
	vars := template.Variables{
		"title.id":     fmt.Sprintf("%d", title.ID),
		"title.season": template.SeasonWord(title.Season),
	}
	if title.TitleRomaji != "" {
		vars["title.romaji"] = title.TitleRomaji
	}
	if title.TitleEnglish != "" {
		vars["title.english"] = title.TitleEnglish
	}
	if title.TitleNative != "" {
		vars["title.native"] = title.TitleNative
	}
	if title.SeasonYear > 0 {
		vars["title.seasonYear"] = fmt.Sprintf("%d", title.SeasonYear)
	}
	if title.Format != "" {
		vars["title.format"] = title.Format
	}
	if title.Status != "" {
		vars["title.status"] = title.Status
	}
	return vars
}

func mergeProviderVariables(vars template.Variables, prefix string, record *metadata.Record, seasonOverride *int) {
	vars[prefix+".id"] = fmt.Sprintf("%d", record.ID)
	if record.Name != "" {
		vars[prefix+".name"] = record.Name
	}
	if record.Year > 0 {
		vars[prefix+".year"] = fmt.Sprintf("%d", record.Year)
	}
	season := record.SeasonNumber
	if seasonOverride != nil {
		season = *seasonOverride
	}
	if season > 0 {
		vars[prefix+".season"] = fmt.Sprintf("%d", season)
		vars[prefix+".seasonNumber"] = fmt.Sprintf("%02d", season)
	}
}

// NormalizeResolution validates a preferred-resolution token and returns
// its canonical form. 4K is an alias for 2160P.
func NormalizeResolution(value string) (string, error) {
	token := strings.ToUpper(strings.TrimSpace(value))
	if token == "" {
		return "", nil
	}
	if !config.ValidResolution(token) {
		return "", services.Wrap(services.ErrValidation, "settings", "resolution",
			fmt.Sprintf("unrecognized resolution %q", value), nil)
	}
	if token == "4K" {
		return "2160P", nil
	}
	return token, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
