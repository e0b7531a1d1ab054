package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyInput         = errors.New("no urls to look up")
	ErrHistoryDisabled    = errors.New("lookup history is disabled")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating lookup id")
)

const (
	DefaultWorkers      = 4
	DefaultIDLength     = 12
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Fetcher resolves the view count of a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (int64, error)
}

// BatchFetcher resolves many URLs of one platform at once. A nil value in
// the result means no count was found.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, urls []string) map[string]*int64
}

type lookupRepository interface {
	Save(ctx context.Context, lookup entity.Lookup) (*entity.Lookup, error)
	RetrieveByID(ctx context.Context, id string) (*entity.Lookup, error)
	List(ctx context.Context, limit int) ([]entity.Lookup, error)
}

type ViewsUseCase struct {
	youtube  BatchFetcher
	fetchers map[entity.Platform]Fetcher
	repo     lookupRepository
	workers  int
	idLength int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*ViewsUseCase)

// WithRepository enables lookup history.
func WithRepository(repo lookupRepository) Option {
	return func(uc *ViewsUseCase) { uc.repo = repo }
}

func WithWorkers(n int) Option {
	return func(uc *ViewsUseCase) {
		if n > 0 {
			uc.workers = n
		}
	}
}

func WithIDLength(n int) Option {
	return func(uc *ViewsUseCase) {
		if n > 0 {
			uc.idLength = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *ViewsUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// New builds the use case. youtube handles YouTube URLs in one batch,
// fetchers handles every other platform.
func New(youtube BatchFetcher, fetchers map[entity.Platform]Fetcher, opts ...Option) *ViewsUseCase {
	uc := &ViewsUseCase{
		youtube:  youtube,
		fetchers: fetchers,
		workers:  DefaultWorkers,
		idLength: DefaultIDLength,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// HistoryEnabled reports whether lookups are persisted.
func (uc *ViewsUseCase) HistoryEnabled() bool {
	return uc.repo != nil
}

// Lookup resolves the view count of every URL. The result holds one entry
// per input URL in input order. A URL whose count cannot be obtained is
// returned without Views and with the reason in Error.
func (uc *ViewsUseCase) Lookup(ctx context.Context, urls []string) ([]entity.Lookup, error) {
	const op = "usecase.ViewsUseCase.Lookup"

	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyInput)
	}

	lookups := make([]entity.Lookup, len(urls))
	var youtubeIdx []int

	for i, raw := range urls {
		u := detect.NormalizeURL(raw)
		lookups[i] = entity.Lookup{URL: u, Platform: detect.Platform(u)}

		if lookups[i].Platform == entity.PlatformYouTube && uc.youtube != nil {
			youtubeIdx = append(youtubeIdx, i)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	if len(youtubeIdx) > 0 {
		g.Go(func() error {
			uc.fetchYouTube(gCtx, lookups, youtubeIdx)
			return nil
		})
	}

	for i := range lookups {
		l := &lookups[i]
		if l.Platform == entity.PlatformYouTube && uc.youtube != nil {
			continue
		}

		f, ok := uc.fetchers[l.Platform]
		if !ok {
			l.Error = entity.ErrUnsupportedPlatform.Error()
			l.FetchedAt = uc.now()
			continue
		}

		g.Go(func() error {
			uc.fetchOne(gCtx, f, l)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if uc.repo != nil {
		for i := range lookups {
			uc.save(ctx, &lookups[i])
		}
	}

	return lookups, nil
}

func (uc *ViewsUseCase) fetchYouTube(ctx context.Context, lookups []entity.Lookup, idx []int) {
	const op = "usecase.ViewsUseCase.fetchYouTube"

	urls := make([]string, len(idx))
	for j, i := range idx {
		urls[j] = lookups[i].URL
	}

	counts := uc.youtube.FetchBatch(ctx, urls)
	now := uc.now()

	for _, i := range idx {
		l := &lookups[i]
		l.FetchedAt = now

		if n := counts[l.URL]; n != nil {
			views := *n
			l.Views = &views
			continue
		}

		l.Error = entity.ErrNoViews.Error()
		uc.logger.Warn("failed to fetch views",
			slog.String("op", op),
			slog.String("url", l.URL),
			slog.String("platform", string(l.Platform)),
		)
	}
}

func (uc *ViewsUseCase) fetchOne(ctx context.Context, f Fetcher, l *entity.Lookup) {
	const op = "usecase.ViewsUseCase.fetchOne"

	n, err := f.Fetch(ctx, l.URL)
	l.FetchedAt = uc.now()

	if err != nil {
		l.Error = err.Error()
		uc.logger.Warn("failed to fetch views",
			slog.String("op", op),
			slog.String("url", l.URL),
			slog.String("platform", string(l.Platform)),
			slog.Any("err", err),
		)
		return
	}

	l.Views = &n
}

func (uc *ViewsUseCase) save(ctx context.Context, l *entity.Lookup) {
	const op = "usecase.ViewsUseCase.save"
	const maxRetries = 5

	for i := 0; i < maxRetries; i++ {
		id, err := gonanoid.New(uc.idLength)
		if err != nil {
			uc.logger.Error("failed to generate lookup id", slog.String("op", op), slog.Any("err", err))
			return
		}

		record := *l
		record.ID = id

		saved, err := uc.repo.Save(ctx, record)
		if err != nil {
			if errors.Is(err, entity.ErrLookupExists) {
				continue
			}

			uc.logger.Error("failed to save lookup",
				slog.String("op", op),
				slog.String("url", l.URL),
				slog.Any("err", err),
			)
			return
		}

		l.ID = saved.ID
		return
	}

	uc.logger.Error("failed to save lookup", slog.String("op", op), slog.Any("err", ErrMaxRetriesExceeded))
}

// History returns the most recent stored lookups, newest first.
func (uc *ViewsUseCase) History(ctx context.Context, limit int) ([]entity.Lookup, error) {
	const op = "usecase.ViewsUseCase.History"

	if uc.repo == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrHistoryDisabled)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	lookups, err := uc.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list lookups: %w", op, err)
	}

	return lookups, nil
}

func (uc *ViewsUseCase) GetLookup(ctx context.Context, id string) (*entity.Lookup, error) {
	const op = "usecase.ViewsUseCase.GetLookup"

	if uc.repo == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrHistoryDisabled)
	}

	lookup, err := uc.repo.RetrieveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get lookup: %w", op, err)
	}

	return lookup, nil
}
