package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/actuallystonmai/mate-recommendation-service/internal/cache"
	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type window struct {
	offset, limit int
}

// fakeStore serves games in slice order as the popularity ranking.
type fakeStore struct {
	games      []domain.Game
	hideTotal  bool
	missing    map[string]bool
	candidates []domain.Candidate
	orders     []domain.CompletedOrder

	topErr, gamesErr, candidatesErr, ordersErr error

	mu              sync.Mutex
	windows         []window
	gamesCalls      int
	candidatesCalls int
	ordersCalls     int
	ordersSince     time.Time
}

func (f *fakeStore) TopGamesByPopularity(_ context.Context, offset, limit int) (domain.PopularGamesPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, window{offset, limit})
	if f.topErr != nil {
		return domain.PopularGamesPage{}, f.topErr
	}

	var page domain.PopularGamesPage
	for i := offset; i < offset+limit && i < len(f.games); i++ {
		page.Rows = append(page.Rows, domain.PopularGame{GameID: f.games[i].ID, PlayerCount: len(f.games) - i})
	}
	if !f.hideTotal {
		total := len(f.games)
		page.Total = &total
	}
	return page, nil
}

func (f *fakeStore) GamesByIDs(_ context.Context, ids []string) ([]domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gamesCalls++
	if f.gamesErr != nil {
		return nil, f.gamesErr
	}

	// Returned in reverse to prove the caller restores popularity order.
	var out []domain.Game
	for i := len(f.games) - 1; i >= 0; i-- {
		g := f.games[i]
		if slices.Contains(ids, g.ID) && !f.missing[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) EligibleCandidates(_ context.Context, descriptions []string) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidatesCalls++
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}

	var out []domain.Candidate
	for _, c := range f.candidates {
		for _, d := range descriptions {
			if c.EligibleFor(d) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CompletedOrders(_ context.Context, _ []string, since time.Time) ([]domain.CompletedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	f.ordersSince = since
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders, nil
}

func testGames(n int) []domain.Game {
	games := make([]domain.Game, 0, n)
	for i := 1; i <= n; i++ {
		games = append(games, domain.Game{
			ID:          fmt.Sprintf("%d", i),
			Name:        fmt.Sprintf("game_%d", i),
			Description: fmt.Sprintf("Game %d", i),
			ImageURL:    fmt.Sprintf("/games/%d.png", i),
		})
	}
	return games
}

// testCandidates gives every game perGame dedicated candidates with a mix of newbies and veterans.
func testCandidates(games []domain.Game, perGame int) []domain.Candidate {
	var out []domain.Candidate
	for _, g := range games {
		for i := range perGame {
			c := domain.Candidate{
				UserID:        fmt.Sprintf("%s-u%d", g.ID, i),
				Rating:        float64(i%5) + 0.5,
				FollowerCount: (i % 4) * 40,
				CreatedAt:     testNow.AddDate(0, -(i % 3), -i),
				SelectedGames: []string{g.Description},
				User: &domain.UserRef{
					PublicID: fmt.Sprintf("pub-%s-%d", g.ID, i),
					Nickname: fmt.Sprintf("mate %s/%d", g.ID, i),
					IsOnline: i%2 == 0,
				},
			}
			out = append(out, c)
		}
	}
	return out
}

func newTestService(store Store, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(store, opts...)
}

func TestBuildRecommendedThemes_Pagination(t *testing.T) {
	games := testGames(5)
	store := &fakeStore{games: games, candidates: testCandidates(games, 15)}
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.BuildRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first.Themes, 3)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 1, *first.NextPage)

	second, err := svc.BuildRecommendedThemes(ctx, *first.NextPage)
	require.NoError(t, err)
	require.Len(t, second.Themes, 2)
	assert.Nil(t, second.NextPage)

	assert.Equal(t, []window{{0, 3}, {3, 2}}, store.windows)

	var ids []string
	for _, th := range append(first.Themes, second.Themes...) {
		ids = append(ids, th.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		page, offset, limit int
	}{
		{0, 0, 3},
		{1, 3, 2},
		{2, 5, 2},
		{10, 21, 2},
	}
	for _, tt := range tests {
		offset, limit := pageWindow(tt.page)
		assert.Equal(t, tt.offset, offset, "page %d", tt.page)
		assert.Equal(t, tt.limit, limit, "page %d", tt.page)
	}
}

func TestBuildRecommendedThemes_EmptyInput(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	got, err := svc.BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"themes":[],"nextPage":null}`, string(body))

	assert.Zero(t, store.gamesCalls)
	assert.Zero(t, store.candidatesCalls)
	assert.Zero(t, store.ordersCalls)
}

func TestBuildRecommendedThemes_PastTheEnd(t *testing.T) {
	store := &fakeStore{games: testGames(5)}
	got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 7)

	require.NoError(t, err)
	assert.Empty(t, got.Themes)
	assert.Nil(t, got.NextPage)
}

func TestBuildRecommendedThemes_InvalidPage(t *testing.T) {
	store := &fakeStore{games: testGames(5)}
	_, err := newTestService(store).BuildRecommendedThemes(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrInvalidPage)
	assert.Empty(t, store.windows)
}

func TestBuildRecommendedThemes_DropsUnresolvedGames(t *testing.T) {
	games := testGames(5)
	store := &fakeStore{
		games:      games,
		missing:    map[string]bool{"2": true},
		candidates: testCandidates(games, 3),
	}

	got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, got.Themes, 2)
	assert.Equal(t, "1", got.Themes[0].ID)
	assert.Equal(t, "3", got.Themes[1].ID)
}

func TestBuildRecommendedThemes_AllGamesUnresolved(t *testing.T) {
	store := &fakeStore{
		games:   testGames(3),
		missing: map[string]bool{"1": true, "2": true, "3": true},
	}

	got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, domain.EmptyThemesPage(), got)
	assert.Zero(t, store.candidatesCalls)
	assert.Zero(t, store.ordersCalls)
}

func TestBuildRecommendedThemes_FallbackHasMore(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		store := &fakeStore{games: testGames(4), hideTotal: true}
		got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
		require.NoError(t, err)

		require.Len(t, got.Themes, 3)
		require.NotNil(t, got.NextPage)
		assert.Equal(t, 1, *got.NextPage)
	})

	t.Run("short page", func(t *testing.T) {
		store := &fakeStore{games: testGames(4), hideTotal: true}
		got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 1)
		require.NoError(t, err)

		require.Len(t, got.Themes, 1)
		assert.Nil(t, got.NextPage)
	})
}

// Without a total, a last page that is exactly full still advertises a next page,
// and that next page comes back empty and terminal.
func TestBuildRecommendedThemes_FallbackHasMoreExactPage(t *testing.T) {
	store := &fakeStore{games: testGames(5), hideTotal: true}
	svc := newTestService(store)
	ctx := context.Background()

	last, err := svc.BuildRecommendedThemes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, last.Themes, 2)
	require.NotNil(t, last.NextPage)
	assert.Equal(t, 2, *last.NextPage)

	beyond, err := svc.BuildRecommendedThemes(ctx, *last.NextPage)
	require.NoError(t, err)
	assert.Empty(t, beyond.Themes)
	assert.Nil(t, beyond.NextPage)
}

func TestHasMore(t *testing.T) {
	total := func(n int) *int { return &n }

	assert.True(t, hasMore(total(6), 3, 2, 2))
	assert.False(t, hasMore(total(5), 3, 2, 2))
	assert.False(t, hasMore(total(5), 3, 2, 0))
	assert.True(t, hasMore(nil, 3, 2, 2))
	assert.False(t, hasMore(nil, 3, 2, 1))
	assert.False(t, hasMore(nil, 0, 0, 0))
}

func TestBuildRecommendedThemes_UpstreamErrors(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name  string
		store *fakeStore
		op    string
	}{
		{"popularity", &fakeStore{games: testGames(3), topErr: cause}, "top games by popularity"},
		{"games", &fakeStore{games: testGames(3), gamesErr: cause}, "games by ids"},
		{"candidates", &fakeStore{games: testGames(3), candidatesErr: cause}, "eligible candidates"},
		{"orders", &fakeStore{games: testGames(3), ordersErr: cause}, "completed orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestService(tt.store).BuildRecommendedThemes(context.Background(), 0)

			assert.Nil(t, got)
			require.Error(t, err)
			assert.ErrorIs(t, err, cause)
			assert.True(t, domain.IsUpstreamError(err))

			var upstream *domain.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.op, upstream.Op)
		})
	}
}

func TestBuildRecommendedThemes_BatchFetches(t *testing.T) {
	games := testGames(3)
	store := &fakeStore{games: games, candidates: testCandidates(games, 5)}

	_, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, store.gamesCalls)
	assert.Equal(t, 1, store.candidatesCalls)
	assert.Equal(t, 1, store.ordersCalls)
	assert.Equal(t, testNow.Add(-OrderLookback), store.ordersSince)
}

func TestBuildRecommendedThemes_MatesBoundedAndUnique(t *testing.T) {
	games := testGames(3)
	candidates := testCandidates(games, 20)
	// Everyone below is eligible for every game on the page.
	for i := range 10 {
		candidates = append(candidates, domain.Candidate{
			UserID:        fmt.Sprintf("shared-%d", i),
			Rating:        5,
			FollowerCount: 5000,
			CreatedAt:     testNow.AddDate(-1, 0, 0),
			SelectedGames: []string{"Game 1", "Game 2", "Game 3"},
		})
	}
	store := &fakeStore{games: games, candidates: candidates}

	got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)

	seen := make(map[string]string)
	for _, th := range got.Themes {
		assert.LessOrEqual(t, len(th.Mates), 12)
		for _, m := range th.Mates {
			prev, dup := seen[m.ID]
			assert.False(t, dup, "%s placed in theme %s and %s", m.ID, prev, th.ID)
			seen[m.ID] = th.ID
			assert.Equal(t, th.Description, m.Game)
		}
	}
}

func TestBuildRecommendedThemes_Deterministic(t *testing.T) {
	games := testGames(5)
	store := &fakeStore{games: games, candidates: testCandidates(games, 25)}
	ctx := context.Background()

	a, err := newTestService(store).BuildRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	b, err := newTestService(store).BuildRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	later := NewService(store, WithClock(func() time.Time { return testNow.Add(11 * time.Hour) }))
	c, err := later.BuildRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, a, c, "same UTC day must give the same page")
}

func TestBuildRecommendedThemes_MateProjection(t *testing.T) {
	games := testGames(1)
	store := &fakeStore{
		games: games,
		candidates: []domain.Candidate{
			{
				UserID:        "u1",
				Description:   "Chill duo",
				Rating:        4.2,
				FollowerCount: 3,
				SelectedGames: []string{"Game 1"},
				User:          &domain.UserRef{PublicID: "p1", Nickname: "Ace", IsOnline: true},
			},
			{
				UserID:        "u2",
				Rating:        3,
				SelectedGames: []string{"Game 1"},
				ThumbnailURL:  "/thumbs/u2.png",
			},
		},
	}

	got, err := newTestService(store).BuildRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got.Themes, 1)

	th := got.Themes[0]
	assert.Equal(t, "game_1", th.Name)
	assert.Equal(t, "Game 1", th.Description)
	assert.Equal(t, "/games/1.png", th.ImageURL)
	require.Len(t, th.Mates, 2)

	byID := map[string]domain.MateData{}
	for _, m := range th.Mates {
		byID[m.ID] = m
	}
	assert.Equal(t, domain.MateData{
		ID:          "u1",
		PublicID:    "p1",
		Name:        "Ace",
		Game:        "Game 1",
		GameIcon:    "/games/1.png",
		Price:       800,
		Rating:      4.2,
		Description: "Chill duo",
		Image:       domain.DefaultMateImage,
		IsOnline:    true,
		VideoLength: "00:00",
	}, byID["u1"])
	assert.Equal(t, "/thumbs/u2.png", byID["u2"].Image)
	assert.Empty(t, byID["u2"].PublicID)
	assert.False(t, byID["u2"].IsOnline)
}

func TestOrderByPopularity(t *testing.T) {
	rows := []domain.Game{{ID: "c"}, {ID: "a"}}
	got := orderByPopularity([]string{"a", "b", "c"}, rows)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCache(client, time.Hour), mr
}

func TestGetRecommendedThemes_CachesPerDay(t *testing.T) {
	games := testGames(5)
	store := &fakeStore{games: games, candidates: testCandidates(games, 10)}
	c, mr := newRedisCache(t)
	svc := newTestService(store, WithCache(c))
	ctx := context.Background()

	first, err := svc.GetRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	assert.True(t, mr.Exists("rec:themes:2024-05-01:page:0"))

	second, err := svc.GetRecommendedThemes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.windows, 1, "second call must be served from cache")
}

func TestGetRecommendedThemes_CacheDownStillBuilds(t *testing.T) {
	games := testGames(3)
	store := &fakeStore{games: games, candidates: testCandidates(games, 4)}
	c, mr := newRedisCache(t)
	mr.Close()
	svc := newTestService(store, WithCache(c))

	got, err := svc.GetRecommendedThemes(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got.Themes, 3)
}

func TestGetRecommendedThemes_ErrorsAreNotCached(t *testing.T) {
	store := &fakeStore{games: testGames(3), topErr: errors.New("down")}
	c, mr := newRedisCache(t)
	svc := newTestService(store, WithCache(c))

	_, err := svc.GetRecommendedThemes(context.Background(), 0)
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestGetRecommendedThemes_InvalidPage(t *testing.T) {
	_, err := newTestService(&fakeStore{}).GetRecommendedThemes(context.Background(), -3)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)
}

func TestBuildRecommendedThemes_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	games := testGames(5)
	ok := newTestService(&fakeStore{games: games}, WithTracerProvider(tp))
	_, err := ok.BuildRecommendedThemes(context.Background(), 1)
	require.NoError(t, err)

	failing := newTestService(&fakeStore{games: games, topErr: errors.New("boom")}, WithTracerProvider(tp))
	_, err = failing.BuildRecommendedThemes(context.Background(), 0)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "BuildRecommendedThemes", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("page", 1))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("themes", 2))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("has_next", false))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
