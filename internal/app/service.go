package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"voice_reviews/internal/domain"
)

type ReviewService struct {
	src      domain.ReviewSource
	norm     *Normalizer
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewReviewService wires the fetch -> normalize pipeline. cache may be nil.
func NewReviewService(src domain.ReviewSource, norm *Normalizer, cache domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{src: src, norm: norm, cache: cache, cacheTTL: ttl}
}

// CompanyReviews returns the normalized reviews for a business. found is false
// when the upstream produced no records at all, whatever the cause.
func (s *ReviewService) CompanyReviews(ctx context.Context, businessID string) (out domain.CompanyReviews, found bool) {
	raws := s.rawRecords(ctx, businessID)
	if len(raws) == 0 {
		return domain.CompanyReviews{}, false
	}
	return domain.CompanyReviews{
		Company: domain.PlaceholderCompany,
		Reviews: s.norm.Normalize(ctx, raws),
	}, true
}

// rawRecords caches the upstream payload, never the normalized output, so
// signed audio URLs are minted per request.
func (s *ReviewService) rawRecords(ctx context.Context, businessID string) []domain.RawRecord {
	key := "reviews:raw:" + businessID
	if s.cache != nil {
		var cached []domain.RawRecord
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("business_id", businessID).Msg("cache get failed")
		}
		if ok && len(cached) > 0 {
			return cached
		}
	}

	// Concurrent requests for one business share a single upstream call; the
	// call is detached from any one caller's cancellation.
	v, _, _ := s.group.Do(businessID, func() (any, error) {
		return s.src.FetchReviews(context.WithoutCancel(ctx), businessID), nil
	})
	raws, _ := v.([]domain.RawRecord)

	// empty results are not cached so an upstream outage is not pinned
	if s.cache != nil && len(raws) > 0 && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, raws, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("business_id", businessID).Msg("cache set failed")
		}
	}
	return raws
}
