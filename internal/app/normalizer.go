package app

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"voice_reviews/internal/adapters/observability"
	"voice_reviews/internal/domain"
)

const (
	DefaultRating    = 3
	DefaultDate      = "Recent"
	DefaultText      = "No transcript available"
	DefaultSentiment = "Neutral"
	DefaultTone      = "Neutral"
	AnonymousName    = "u***@***.com"
)

/********** raw record keys (upstream schema) **********/

const (
	keyID          = "id"
	keyMeta        = "metaData"
	keyQuestions   = "quess"
	keyAnswer      = "answer"
	keyTranscript  = "transcribe"
	keySubmittedAt = "submittedAt"
	keyEmail       = "userEmail"
	keyVoiceFile   = "voiceFileName"

	keyFeedback   = "feedbackAnalysis"
	keyDuration   = "audioDurationSec"
	keySentiment  = "overallSentiment"
	keyTone       = "tonePrimary"
	keyComplaints = "complaintsDetected"
)

type Normalizer struct {
	allow domain.AllowList
	audio domain.AudioResolver
}

// StaticAudio resolves every voice file to the same URL.
type StaticAudio string

func (s StaticAudio) Resolve(context.Context, string) string { return string(s) }

// NewNormalizer builds a Normalizer. A nil resolver serves the placeholder audio.
func NewNormalizer(allow domain.AllowList, audio domain.AudioResolver) *Normalizer {
	if audio == nil {
		audio = StaticAudio(domain.FallbackAudioURL)
	}
	return &Normalizer{allow: allow, audio: audio}
}

// Normalize filters raw records by the allow-list and reshapes the survivors.
// It never fails; the result is non-nil and never longer than the input.
func (n *Normalizer) Normalize(ctx context.Context, raws []domain.RawRecord) []domain.Review {
	out := make([]domain.Review, 0, len(raws))
	for _, r := range raws {
		id := idString(r[keyID])
		if !n.allow.Allows(id) {
			observability.ObserveSkipped("not_allowed")
			continue
		}
		if rv, ok := n.normalizeOne(ctx, id, r); ok {
			out = append(out, rv)
		}
	}
	observability.ObserveNormalized(len(out))
	return out
}

// normalizeOne isolates a single record: a panic drops only this record.
func (n *Normalizer) normalizeOne(ctx context.Context, id string, r domain.RawRecord) (rv domain.Review, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			observability.ObserveSkipped("panic")
			log.Error().Str("record_id", id).Interface("panic", rec).Msg("normalize record failed; skipping")
			rv, ok = domain.Review{}, false
		}
	}()

	meta, valid := asObject(r[keyMeta])
	if !valid {
		log.Debug().Str("record_id", id).Msg("metaData is not a JSON object; using empty metadata")
	}
	feedback, _ := asObject(meta[keyFeedback])

	duration := 0.0
	if f := getFloatFlexible(meta, keyDuration); f != nil {
		duration = *f
	}

	return domain.Review{
		Name:       MaskEmail(lookupStr(r, keyEmail)),
		Date:       reviewDate(lookupStr(r, keySubmittedAt)),
		Rating:     AverageRating(answers(r[keyQuestions])),
		Text:       reviewText(lookupStr(r, keyTranscript)),
		Audio:      n.audio.Resolve(ctx, lookupStr(r, keyVoiceFile)),
		Duration:   duration,
		Sentiment:  strOr(feedback, keySentiment, DefaultSentiment),
		Tone:       strOr(feedback, keyTone, DefaultTone),
		Complaints: boolOr(feedback, keyComplaints, false),
	}, true
}

// answers collects the answer of every question entry. Entries without a
// numeric answer count as 0 so they still weigh into the mean.
func answers(v any) []float64 {
	qs := asSlice(v)
	out := make([]float64, 0, len(qs))
	for _, q := range qs {
		a := 0.0
		if m, ok := q.(map[string]any); ok {
			if f, ok := toFloat(m[keyAnswer]); ok {
				a = f
			}
		}
		out = append(out, a)
	}
	return out
}

// AverageRating is the mean answer rounded half away from zero (4.5 -> 5),
// clamped to 1..5. An empty list rates DefaultRating.
func AverageRating(vals []float64) int {
	if len(vals) == 0 {
		return DefaultRating
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if math.IsNaN(mean) {
		return DefaultRating
	}
	r := math.Round(mean)
	switch {
	case r < 1:
		return 1
	case r > 5:
		return 5
	}
	return int(r)
}

// MaskEmail keeps the first character of the local part and the top-level
// label of the domain: "alice@mail.example.org" -> "a***@***.org".
func MaskEmail(email string) string {
	if !strings.Contains(email, "@") {
		return AnonymousName
	}
	parts := strings.Split(email, "@")
	local, dom := parts[0], parts[1]

	first := firstRunes(local, 1)
	if first == "" {
		first = "u"
	}
	labels := strings.Split(dom, ".")
	return first + "***@***." + labels[len(labels)-1]
}

func reviewDate(submittedAt string) string {
	if submittedAt == "" {
		return DefaultDate
	}
	return firstRunes(submittedAt, 10)
}

func reviewText(transcript string) string {
	if transcript == "" {
		return DefaultText
	}
	return transcript
}
