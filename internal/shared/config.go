package shared

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"voice_reviews/internal/domain"
)

// DefaultAllowedIDs are the record ids accepted when REVIEWS_ALLOWED_IDS is unset.
var DefaultAllowedIDs = []string{"1757322288349", "1757322711026"}

type Config struct {
	AppEnv      string
	Debug       bool
	HTTPAddr    string
	MetricsAddr string

	UpstreamURL     string
	UpstreamTimeout time.Duration
	UpstreamRPS     int

	S3Bucket      string
	AWSRegion     string
	PresignTTL    time.Duration
	FallbackAudio string

	AllowedIDs []string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	CORSOrigin string
}

// Load reads the process environment. A .env file in the working directory,
// if present, fills in variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env load failed")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	debug := strings.EqualFold(env("DEBUG", "false"), "true")
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		Debug:           debug,
		HTTPAddr:        env("HTTP_ADDR", net.JoinHostPort(env("HOST", ""), env("PORT", "5000"))),
		MetricsAddr:     env("METRICS_ADDR", ""),
		UpstreamURL:     env("API_URL", ""),
		UpstreamTimeout: time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 20)) * time.Second,
		UpstreamRPS:     atoi("UPSTREAM_RPS", 5),
		S3Bucket:        env("S3_BUCKET", ""),
		AWSRegion:       env("AWS_REGION", "us-east-1"),
		PresignTTL:      time.Duration(atoi("PRESIGN_TTL_SECONDS", 3600)) * time.Second,
		FallbackAudio:   env("FALLBACK_AUDIO_URL", domain.FallbackAudioURL),
		AllowedIDs:      allowedIDs(),
		RedisAddr:       env("REDIS_ADDR", ""),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		CORSOrigin:      env("CORS_ORIGIN", "*"),
	}
	if debug && c.AppEnv == "prod" {
		c.AppEnv = "dev"
	}
	if c.UpstreamURL == "" {
		log.Warn().Msg("API_URL is empty; every business will resolve to not found")
	}
	if c.S3Bucket == "" {
		log.Warn().Msg("S3_BUCKET is empty; reviews will use the fallback audio")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// allowedIDs distinguishes unset (defaults) from set-but-empty (accept nothing).
func allowedIDs() []string {
	v, ok := os.LookupEnv("REVIEWS_ALLOWED_IDS")
	if !ok {
		return append([]string(nil), DefaultAllowedIDs...)
	}
	return splitCSV(v)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
