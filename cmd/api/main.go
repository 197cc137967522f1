package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"voice_reviews/internal/adapters/awsutil"
	server "voice_reviews/internal/adapters/http_server"
	"voice_reviews/internal/adapters/observability"
	redisad "voice_reviews/internal/adapters/redis"
	"voice_reviews/internal/adapters/s3audio"
	"voice_reviews/internal/adapters/upstream"
	"voice_reviews/internal/app"
	"voice_reviews/internal/domain"
	"voice_reviews/internal/shared"
	"voice_reviews/internal/widget"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// audio: without a bucket or AWS config every review gets the placeholder
	audio := s3audio.New(nil, cfg.S3Bucket, cfg.PresignTTL, cfg.FallbackAudio)
	if cfg.S3Bucket != "" {
		awsConf, endpoint, err := awsutil.Load(ctx, cfg.AWSRegion)
		if err != nil {
			log.Warn().Err(err).Msg("aws config load failed; using fallback audio")
		} else {
			audio = s3audio.NewFromConfig(awsConf, endpoint, cfg.S3Bucket, cfg.PresignTTL, cfg.FallbackAudio)
		}
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; cache stays enabled and errors fall through")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
		}
		cancel()
		defer rc.Close()
		cache = rc
	}

	// deps
	src := upstream.New(cfg.UpstreamURL, cfg.UpstreamTimeout, cfg.UpstreamRPS)
	norm := app.NewNormalizer(domain.NewAllowList(cfg.AllowedIDs...), audio)
	svc := app.NewReviewService(src, norm, cache, cfg.CacheTTL)

	// http
	srv := server.New(server.Options{CORSOrigin: cfg.CORSOrigin})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: svc, Widget: widget.Handler()})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("upstream", cfg.UpstreamURL).
		Strs("allowed_ids", cfg.AllowedIDs).
		Bool("cache", cache != nil).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
