package domain

import "context"

// ReviewSource returns the raw records for a business. Implementations are
// fail-soft: any failure yields an empty list.
type ReviewSource interface {
	FetchReviews(ctx context.Context, businessID string) []RawRecord
}

// AudioResolver turns a voice file name into a playable URL. It never fails;
// on any problem it returns a placeholder URL.
type AudioResolver interface {
	Resolve(ctx context.Context, voiceFile string) string
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
}
