package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/shortlink/internal/cache"
	"github.com/mmeshcher/shortlink/internal/codec"
	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
)

const (
	MaxURLLength             = 255
	defaultCacheTimeout      = 2 * time.Second
	defaultInvalidationDelay = 500 * time.Millisecond

	generationStripes = 256
)

var (
	ErrInvalidCode    = errors.New("invalid short url")
	ErrInvalidURL     = errors.New("invalid url")
	ErrNotFound       = errors.New("url not found")
	ErrConflict       = errors.New("record was deleted, try again")
	ErrURLTaken       = fmt.Errorf("%w: url already in db", ErrConflict)
	ErrEmptyBatch     = errors.New("empty batch")
	ErrInfrastructure = errors.New("infrastructure error")
)

// Store is the source of truth for URL records.
type Store interface {
	Get(ctx context.Context, id int64) (models.URLRecord, error)
	GetByURL(ctx context.Context, url string) (models.URLRecord, error)
	List(ctx context.Context) ([]models.URLRecord, error)
	Add(ctx context.Context, url string) (models.URLRecord, error)
	Delete(ctx context.Context, id int64) (models.URLRecord, error)
	Update(ctx context.Context, id int64, patch models.URLPatch) (models.URLRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

type CreateStatus string

const (
	StatusCreated CreateStatus = "created"
	StatusExists  CreateStatus = "exists"
)

type CreateResult struct {
	Record models.URLRecord
	Status CreateStatus
}

type Option func(*ShortenerService)

func WithBaseURL(baseURL string) Option {
	return func(s *ShortenerService) {
		s.baseURL = baseURL
	}
}

// WithCacheTimeout bounds cache writes that follow a committed store mutation.
func WithCacheTimeout(d time.Duration) Option {
	return func(s *ShortenerService) {
		if d > 0 {
			s.cacheTimeout = d
		}
	}
}

// WithInvalidationDelay sets how long after a delete or deactivation the cache
// entry is removed a second time. Zero disables the second removal.
func WithInvalidationDelay(d time.Duration) Option {
	return func(s *ShortenerService) {
		if d >= 0 {
			s.invalidationDelay = d
		}
	}
}

// ShortenerService coordinates the store and the cache. The cache only ever holds
// codes of active records, so a cache hit is enough to serve a redirect.
//
// Every mutation bumps the generation of its code's stripe. A store load only
// writes the cache if the generation it started under is still current, so a
// load that read a record before a delete or deactivation cannot put it back.
type ShortenerService struct {
	store             Store
	cache             cache.Cache
	baseURL           string
	cacheTimeout      time.Duration
	invalidationDelay time.Duration
	logger            *zap.Logger
	loads             singleflight.Group
	generations       [generationStripes]atomic.Uint64
	pending           sync.WaitGroup
}

func NewShortenerService(store Store, c cache.Cache, logger *zap.Logger, opts ...Option) *ShortenerService {
	if c == nil {
		c = cache.Nop{}
	}

	s := &ShortenerService{
		store:             store,
		cache:             c,
		baseURL:           "http://localhost:8080",
		cacheTimeout:      defaultCacheTimeout,
		invalidationDelay: defaultInvalidationDelay,
		logger:            logger.With(zap.String("component", "service")),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *ShortenerService) ShortURL(code string) string {
	fullURL, err := url.JoinPath(s.baseURL, code)
	if err != nil {
		return strings.TrimRight(s.baseURL, "/") + "/" + code
	}
	return fullURL
}

// Fetch resolves code to its active record.
func (s *ShortenerService) Fetch(ctx context.Context, code string) (models.URLRecord, error) {
	id, err := decode(code)
	if err != nil {
		return models.URLRecord{}, err
	}

	target, err := s.cache.Get(ctx, code)
	switch {
	case err == nil:
		metrics.RecordCacheHit()
		return models.URLRecord{ID: id, Code: code, URL: target, Active: true}, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordCacheMiss()
	default:
		s.cacheFailed("get", code, err)
	}

	v, err, shared := s.loads.Do(code, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		gen := s.generation(code)

		record, err := s.store.Get(loadCtx, id)
		if err != nil {
			return nil, s.storeError("get", err)
		}
		if !record.Active {
			return nil, ErrNotFound
		}

		if s.generation(code) == gen {
			s.cacheSet(loadCtx, code, record.URL)
		} else {
			s.logger.Debug("skipped cache fill after concurrent mutation", zap.String("code", code))
		}
		return record, nil
	})
	if err != nil {
		return models.URLRecord{}, err
	}
	if shared {
		s.logger.Debug("collapsed concurrent store load", zap.String("code", code))
	}

	return v.(models.URLRecord), nil
}

// Create stores rawURL, or reports the record already holding it.
func (s *ShortenerService) Create(ctx context.Context, rawURL string) (CreateResult, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return CreateResult{}, err
	}

	record, err := s.store.Add(ctx, target)
	if err == nil {
		s.cacheSet(ctx, record.Code, record.URL)
		metrics.RecordOperation("create", string(StatusCreated))
		s.logger.Info("Short URL created", zap.String("code", record.Code), zap.String("url", record.URL))
		return CreateResult{Record: record, Status: StatusCreated}, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return CreateResult{}, s.storeError("add", err)
	}

	existing, err := s.store.GetByURL(ctx, target)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Record vanished between add and lookup", zap.String("url", target))
			metrics.RecordOperation("create", "conflict")
			return CreateResult{}, ErrConflict
		}
		return CreateResult{}, s.storeError("get_by_url", err)
	}

	if existing.Active {
		s.cacheSet(ctx, existing.Code, existing.URL)
	}
	metrics.RecordOperation("create", string(StatusExists))

	return CreateResult{Record: existing, Status: StatusExists}, nil
}

// CreateBatch validates every URL before storing any of them.
func (s *ShortenerService) CreateBatch(ctx context.Context, rawURLs []string) ([]CreateResult, error) {
	if len(rawURLs) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, raw := range rawURLs {
		if _, err := NormalizeURL(raw); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	results := make([]CreateResult, 0, len(rawURLs))
	for _, raw := range rawURLs {
		result, err := s.Create(ctx, raw)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *ShortenerService) List(ctx context.Context) ([]models.URLRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeError("list", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (s *ShortenerService) Delete(ctx context.Context, code string) (models.URLRecord, error) {
	id, err := decode(code)
	if err != nil {
		return models.URLRecord{}, err
	}

	record, err := s.store.Delete(ctx, id)
	if err != nil {
		return models.URLRecord{}, s.storeError("delete", err)
	}

	s.invalidate(ctx, code)
	metrics.RecordOperation("delete", "deleted")
	s.logger.Info("Short URL deleted", zap.String("code", code))

	return record, nil
}

// Update applies patch to the record behind code. Afterwards the cache holds the
// code only if the record is active.
func (s *ShortenerService) Update(ctx context.Context, code string, patch models.URLPatch) (models.URLRecord, error) {
	id, err := decode(code)
	if err != nil {
		return models.URLRecord{}, err
	}

	if raw, ok := patch.URL.Get(); ok {
		target, err := NormalizeURL(raw)
		if err != nil {
			return models.URLRecord{}, err
		}
		patch.URL = models.Some(target)
	}

	record, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.URLRecord{}, ErrURLTaken
		}
		return models.URLRecord{}, s.storeError("update", err)
	}

	if record.Active {
		s.bumpGeneration(code)
		s.cacheSet(ctx, code, record.URL)
	} else {
		s.invalidate(ctx, code)
	}
	metrics.RecordOperation("update", "updated")

	return record, nil
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return s.storeError("ping", err)
	}
	if err := s.cache.Ping(ctx); err != nil {
		s.logger.Warn("Cache is unreachable", zap.Error(err))
	}
	return nil
}

// Close waits for pending delayed invalidations before closing the cache and the store.
func (s *ShortenerService) Close() error {
	s.pending.Wait()
	return errors.Join(s.cache.Close(), s.store.Close())
}

// NormalizeURL checks that raw is an absolute http(s) URL no longer than
// MaxURLLength and returns it with a lowercased scheme and host and a non-empty path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	normalized := u.String()
	if len(normalized) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	return normalized, nil
}

func decode(code string) (int64, error) {
	if !codec.IsValid(code) {
		return 0, ErrInvalidCode
	}
	id, err := codec.Decode(code)
	if err != nil {
		return 0, ErrInvalidCode
	}
	return id, nil
}

func (s *ShortenerService) storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	s.logger.Error("Store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrInfrastructure, op, err)
}

// cacheSet and cacheDelete run detached from the caller's cancellation so that a
// committed store change always reaches the cache.
func (s *ShortenerService) cacheSet(ctx context.Context, code, target string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cacheTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, code, target); err != nil {
		s.cacheFailed("set", code, err)
	}
}

func (s *ShortenerService) cacheDelete(ctx context.Context, code string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cacheTimeout)
	defer cancel()

	if err := s.cache.Delete(ctx, code); err != nil {
		s.cacheFailed("delete", code, err)
	}
}

// invalidate removes code from the cache after a committed delete or deactivation.
// A second removal after invalidationDelay catches fills that passed the
// generation check just before the bump, and writers in other processes.
func (s *ShortenerService) invalidate(ctx context.Context, code string) {
	s.bumpGeneration(code)
	s.cacheDelete(ctx, code)

	if s.invalidationDelay <= 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	time.AfterFunc(s.invalidationDelay, func() {
		defer s.pending.Done()
		s.cacheDelete(detached, code)
	})
}

func (s *ShortenerService) generation(code string) uint64 {
	return s.generations[stripe(code)].Load()
}

func (s *ShortenerService) bumpGeneration(code string) {
	s.generations[stripe(code)].Add(1)
}

func stripe(code string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return h.Sum32() % generationStripes
}

func (s *ShortenerService) cacheFailed(op, code string, err error) {
	metrics.RecordCacheError(op)
	s.logger.Warn("Cache operation failed",
		zap.String("op", op),
		zap.String("code", code),
		zap.Error(err))
}
