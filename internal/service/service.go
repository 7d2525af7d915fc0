package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
	"github.com/actuallystonmai/mate-recommendation-service/internal/logging"
	"github.com/actuallystonmai/mate-recommendation-service/internal/metrics"
	"github.com/actuallystonmai/mate-recommendation-service/internal/ranking"
)

const (
	ThemesPerPageInitial = 3
	ThemesPerPage        = 2
	OrderLookback        = 90 * 24 * time.Hour

	tracerName = "github.com/actuallystonmai/mate-recommendation-service/internal/service"
)

// Store is the read side the assembler pulls rows from. Every call is one batch.
type Store interface {
	TopGamesByPopularity(ctx context.Context, offset, limit int) (domain.PopularGamesPage, error)
	GamesByIDs(ctx context.Context, ids []string) ([]domain.Game, error)
	EligibleCandidates(ctx context.Context, descriptions []string) ([]domain.Candidate, error)
	CompletedOrders(ctx context.Context, gameNames []string, since time.Time) ([]domain.CompletedOrder, error)
}

// ThemeCache stores built pages for the UTC day containing now.
type ThemeCache interface {
	Get(ctx context.Context, now time.Time, page int) (*domain.ThemesPage, bool, error)
	Set(ctx context.Context, now time.Time, page int, themes *domain.ThemesPage) error
}

type Service struct {
	store  Store
	cache  ThemeCache
	now    func() time.Time
	tracer trace.Tracer
	log    zerolog.Logger
}

type Option func(*Service)

// WithCache enables the day-scoped page cache.
func WithCache(c ThemeCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
		log:    logging.WithComponent("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRecommendedThemes serves a page from the cache when possible and builds it otherwise.
// Cache failures are logged and never fail the request.
func (s *Service) GetRecommendedThemes(ctx context.Context, page int) (*domain.ThemesPage, error) {
	if page < 0 {
		return nil, domain.ErrInvalidPage
	}
	now := s.now()

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, now, page)
		if err != nil {
			metrics.RecordCacheError("get")
			logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("cache get failed")
		}
		metrics.RecordCacheLookup(found)
		if found {
			return cached, nil
		}
	}

	themes, err := s.build(ctx, page, now)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, now, page, themes); err != nil {
			metrics.RecordCacheError("set")
			logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("cache set failed")
		}
	}
	return themes, nil
}

// BuildRecommendedThemes builds one page of themes without consulting the cache.
func (s *Service) BuildRecommendedThemes(ctx context.Context, page int) (*domain.ThemesPage, error) {
	if page < 0 {
		return nil, domain.ErrInvalidPage
	}
	return s.build(ctx, page, s.now())
}

func (s *Service) build(ctx context.Context, page int, now time.Time) (*domain.ThemesPage, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "BuildRecommendedThemes",
		trace.WithAttributes(attribute.Int("page", page)),
	)
	defer span.End()

	themes, err := s.assemble(ctx, page, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordBuild("error", 0, time.Since(start))
		return nil, err
	}

	outcome := "ok"
	if len(themes.Themes) == 0 {
		outcome = "empty"
	}
	span.SetAttributes(
		attribute.Int("themes", len(themes.Themes)),
		attribute.Bool("has_next", themes.NextPage != nil),
	)
	metrics.RecordBuild(outcome, len(themes.Themes), time.Since(start))
	s.log.Debug().
		Int("page", page).
		Int("themes", len(themes.Themes)).
		Dur("elapsed", time.Since(start)).
		Msg("built recommended themes")

	return themes, nil
}

// pageWindow returns the popularity window for page: three games first, two per page after.
func pageWindow(page int) (offset, limit int) {
	if page == 0 {
		return 0, ThemesPerPageInitial
	}
	return ThemesPerPageInitial + (page-1)*ThemesPerPage, ThemesPerPage
}

func (s *Service) assemble(ctx context.Context, page int, now time.Time) (*domain.ThemesPage, error) {
	offset, limit := pageWindow(page)

	popular, err := s.store.TopGamesByPopularity(ctx, offset, limit)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "top games by popularity", Err: err}
	}
	if len(popular.Rows) == 0 {
		return domain.EmptyThemesPage(), nil
	}

	ids := make([]string, 0, len(popular.Rows))
	for _, row := range popular.Rows {
		ids = append(ids, row.GameID)
	}
	rows, err := s.store.GamesByIDs(ctx, ids)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "games by ids", Err: err}
	}
	games := orderByPopularity(ids, rows)
	if len(games) == 0 {
		return domain.EmptyThemesPage(), nil
	}

	candidates, orders, err := s.fetchSignals(ctx, games, now)
	if err != nil {
		return nil, err
	}

	sampler := ranking.Sampler{
		Scorer: ranking.Scorer{
			Orders: ranking.CountOrders(orders),
			Games:  ranking.NewGameLookup(games),
		},
		Now: now,
	}

	used := make(map[string]bool)
	themes := make([]domain.Theme, 0, len(games))
	for _, game := range games {
		var pool []domain.Candidate
		for _, c := range candidates {
			if !used[c.UserID] && c.EligibleFor(game.Description) {
				pool = append(pool, c)
			}
		}

		selected := sampler.Select(pool, game.Description, ranking.DailyRandom(game.ID, now))

		mates := make([]domain.MateData, 0, len(selected))
		for _, c := range selected {
			used[c.UserID] = true
			mates = append(mates, domain.NewMateData(c, game))
		}
		themes = append(themes, domain.Theme{
			ID:          game.ID,
			Name:        game.Name,
			Description: game.Description,
			ImageURL:    game.ImageURL,
			Mates:       mates,
		})
	}

	result := &domain.ThemesPage{Themes: themes}
	if hasMore(popular.Total, offset, limit, len(themes)) {
		next := page + 1
		result.NextPage = &next
	}
	return result, nil
}

// fetchSignals loads candidates and recent completed orders for the page's games concurrently.
func (s *Service) fetchSignals(ctx context.Context, games []domain.Game, now time.Time) ([]domain.Candidate, []domain.CompletedOrder, error) {
	var (
		candidates []domain.Candidate
		orders     []domain.CompletedOrder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.store.EligibleCandidates(gctx, ranking.Descriptions(games))
		if err != nil {
			return &domain.UpstreamError{Op: "eligible candidates", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.CompletedOrders(gctx, ranking.Names(games), now.Add(-OrderLookback))
		if err != nil {
			return &domain.UpstreamError{Op: "completed orders", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candidates, orders, nil
}

// orderByPopularity lays rows out in ids order. Ids without a row are dropped.
func orderByPopularity(ids []string, rows []domain.Game) []domain.Game {
	byID := make(map[string]domain.Game, len(rows))
	for _, g := range rows {
		byID[g.ID] = g
	}

	games := make([]domain.Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			games = append(games, g)
		}
	}
	return games
}

// hasMore uses the total when the store reports one. Without it a full page is taken
// to mean more may follow, which over-reports by one page when the last page is exactly full.
func hasMore(total *int, offset, pageSize, themes int) bool {
	if total != nil {
		return offset+pageSize < *total
	}
	return themes > 0 && themes == pageSize
}
