// Package s3audio resolves voice recordings to time-limited S3 GET URLs.
package s3audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"voice_reviews/internal/adapters/observability"
)

// KeyPrefix is the folder voice recordings live under in the bucket.
const KeyPrefix = "voice/"

const DefaultTTL = time.Hour

// Presigner defines the interface for presigning S3 GET requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Resolver is best-effort: it never returns an error, only the fallback URL.
type Resolver struct {
	p        Presigner
	bucket   string
	ttl      time.Duration
	fallback string
}

// New builds a Resolver. A nil presigner or empty bucket makes every call
// return the fallback URL.
func New(p Presigner, bucket string, ttl time.Duration, fallback string) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{p: p, bucket: strings.TrimSpace(bucket), ttl: ttl, fallback: fallback}
}

// NewFromConfig builds the SDK presign client. Path-style addressing is used
// whenever a custom endpoint (LocalStack) is configured.
func NewFromConfig(cfg aws.Config, endpoint, bucket string, ttl time.Duration, fallback string) *Resolver {
	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return New(s3.NewPresignClient(s3c), bucket, ttl, fallback)
}

// Key returns the object key for a voice file.
func Key(voiceFile string) string { return KeyPrefix + voiceFile }

func (r *Resolver) Resolve(ctx context.Context, voiceFile string) string {
	voiceFile = strings.TrimSpace(voiceFile)
	switch {
	case voiceFile == "":
		observability.ObserveAudioFallback("no_file")
		return r.fallback
	case r.bucket == "" || r.p == nil:
		observability.ObserveAudioFallback("no_bucket")
		return r.fallback
	}

	u, err := r.PresignGet(ctx, voiceFile)
	if err != nil {
		observability.ObserveAudioFallback("sign_error")
		log.Warn().Err(err).Str("bucket", r.bucket).Str("file", voiceFile).Msg("presign voice file failed; using fallback audio")
		return r.fallback
	}
	return u
}

// PresignGet signs a GET for voice/<voiceFile>. Panics from the signer are
// reported as errors.
func (r *Resolver) PresignGet(ctx context.Context, voiceFile string) (u string, err error) {
	if r.p == nil || r.bucket == "" {
		return "", errors.New("s3audio: no bucket configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("s3audio: presign panic: %v", rec)
		}
	}()

	start := time.Now()
	req, err := r.p.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(Key(voiceFile)),
	}, func(o *s3.PresignOptions) { o.Expires = r.ttl })
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("s3", "presign_get", status, time.Since(start))
	if err != nil {
		return "", err
	}
	if req == nil || req.URL == "" {
		return "", errors.New("s3audio: empty presigned url")
	}
	return req.URL, nil
}
