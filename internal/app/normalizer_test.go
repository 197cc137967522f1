package app_test

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"voice_reviews/internal/app"
	"voice_reviews/internal/domain"
)

const (
	idA = "1757322288349"
	idB = "1757322711026"
)

// ---- fakes ----

type fakeAudio struct {
	files []string
}

func (f *fakeAudio) Resolve(ctx context.Context, voiceFile string) string {
	f.files = append(f.files, voiceFile)
	if voiceFile == "" {
		return domain.FallbackAudioURL
	}
	return "https://signed.example/voice/" + voiceFile
}

func decode(t *testing.T, s string) []domain.RawRecord {
	t.Helper()
	var out []domain.RawRecord
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return out
}

func newNormalizer(audio domain.AudioResolver) *app.Normalizer {
	return app.NewNormalizer(domain.NewAllowList(idA, idB), audio)
}

// ---- tests ----

func TestNormalize_Scenario(t *testing.T) {
	raws := decode(t, `[{
		"id": "1757322288349",
		"userEmail": "a@b.com",
		"quess": [{"answer": 4}, {"answer": 5}],
		"metaData": "{}",
		"transcribe": "Great!"
	}]`)
	audio := &fakeAudio{}

	got := newNormalizer(audio).Normalize(context.Background(), raws)
	if len(got) != 1 {
		t.Fatalf("expected 1 review, got %d", len(got))
	}
	want := domain.Review{
		Name:       "a***@***.com",
		Date:       "Recent",
		Rating:     5, // round(4.5) half away from zero
		Text:       "Great!",
		Audio:      domain.FallbackAudioURL,
		Duration:   0,
		Sentiment:  "Neutral",
		Tone:       "Neutral",
		Complaints: false,
	}
	if got[0] != want {
		t.Fatalf("unexpected review:\n got %+v\nwant %+v", got[0], want)
	}
	if len(audio.files) != 1 || audio.files[0] != "" {
		t.Fatalf("resolver should be called once with an empty file, got %q", audio.files)
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	raws := decode(t, `[{
		"id": "1757322711026",
		"userEmail": "jane.doe@mail.example.org",
		"quess": [{"answer": 2}, {"answer": 3}, {"answer": 3}],
		"metaData": "{\"audioDurationSec\": 75, \"feedbackAnalysis\": {\"overallSentiment\": \"Positive\", \"tonePrimary\": \"Warm\", \"complaintsDetected\": true}}",
		"transcribe": "Lovely staff",
		"submittedAt": "2025-09-08T10:04:48.349Z",
		"voiceFileName": "rec-1.webm"
	}]`)

	got := newNormalizer(&fakeAudio{}).Normalize(context.Background(), raws)
	if len(got) != 1 {
		t.Fatalf("expected 1 review, got %d", len(got))
	}
	r := got[0]
	if r.Name != "j***@***.org" || r.Date != "2025-09-08" || r.Rating != 3 || r.Text != "Lovely staff" {
		t.Fatalf("unexpected review: %+v", r)
	}
	if r.Audio != "https://signed.example/voice/rec-1.webm" {
		t.Fatalf("unexpected audio %q", r.Audio)
	}
	if r.Duration != 75 || r.Sentiment != "Positive" || r.Tone != "Warm" || !r.Complaints {
		t.Fatalf("unexpected metadata fields: %+v", r)
	}
}

func TestNormalize_MetadataAsObject(t *testing.T) {
	raws := decode(t, `[{"id": "1757322288349", "metaData": {"audioDurationSec": 12.5, "feedbackAnalysis": {"overallSentiment": "Negative"}}}]`)
	got := newNormalizer(nil).Normalize(context.Background(), raws)
	if len(got) != 1 || got[0].Duration != 12.5 || got[0].Sentiment != "Negative" || got[0].Tone != "Neutral" {
		t.Fatalf("unexpected review: %+v", got)
	}
	if got[0].Audio != domain.FallbackAudioURL {
		t.Fatalf("nil resolver must serve the fallback, got %q", got[0].Audio)
	}
}

func TestNormalize_NumbersAsJSONNumber(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`[
		{"id": 1757322288349, "quess": [{"answer": 4}, {"answer": 5}], "metaData": {"audioDurationSec": 42}},
		{"id": "1757322711026", "quess": [{"answer": 1e400}, {"answer": 2}], "metaData": {"audioDurationSec": 1e400}}
	]`))
	dec.UseNumber()
	var raws []domain.RawRecord
	if err := dec.Decode(&raws); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	got := newNormalizer(nil).Normalize(context.Background(), raws)
	if len(got) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(got))
	}
	if got[0].Rating != 5 || got[0].Duration != 42 {
		t.Fatalf("unexpected first review %+v", got[0])
	}
	// out-of-range numbers fall back to their defaults: answers 0, 2 -> 1
	if got[1].Rating != 1 || got[1].Duration != 0 {
		t.Fatalf("unexpected second review %+v", got[1])
	}
}

func TestNormalize_FiltersByAllowList(t *testing.T) {
	raws := decode(t, `[
		{"id": "1757322288349"},
		{"id": "999"},
		{"userEmail": "no-id@x.io"},
		{"id": 1757322711026},
		{"id": "1757322711026"}
	]`)
	got := newNormalizer(&fakeAudio{}).Normalize(context.Background(), raws)
	if len(got) != 3 {
		t.Fatalf("expected 3 allowed records, got %d", len(got))
	}
	if len(got) > len(raws) {
		t.Fatalf("output longer than input")
	}

	none := app.NewNormalizer(domain.NewAllowList(), nil).Normalize(context.Background(), raws)
	if none == nil || len(none) != 0 {
		t.Fatalf("empty allow-list should yield empty non-nil list, got %#v", none)
	}
}

func TestNormalize_MalformedRecordsDefault(t *testing.T) {
	raws := decode(t, `[
		{"id": "1757322288349", "metaData": "{not json", "quess": "nope", "userEmail": 12, "transcribe": null, "submittedAt": ""},
		{"id": "1757322288349", "metaData": 7, "quess": [1, {"answer": "4"}, {"answer": null}], "submittedAt": 1700000000},
		{"id": "1757322711026", "metaData": "{\"feedbackAnalysis\": \"oops\", \"audioDurationSec\": \"n/a\"}", "transcribe": "ok"}
	]`)
	got := newNormalizer(&fakeAudio{}).Normalize(context.Background(), raws)
	if len(got) != 3 {
		t.Fatalf("every malformed record should still be produced, got %d", len(got))
	}

	first := got[0]
	if first.Name != app.AnonymousName || first.Date != "Recent" || first.Rating != 3 || first.Text != "No transcript available" {
		t.Fatalf("unexpected defaults: %+v", first)
	}
	if first.Duration != 0 || first.Sentiment != "Neutral" || first.Tone != "Neutral" || first.Complaints {
		t.Fatalf("unexpected metadata defaults: %+v", first)
	}
	// answers 0, 4, 0 -> mean 1.33 -> 1
	if got[1].Rating != 1 || got[1].Date != "Recent" {
		t.Fatalf("unexpected second record: %+v", got[1])
	}
	if got[2].Sentiment != "Neutral" || got[2].Duration != 0 || got[2].Text != "ok" {
		t.Fatalf("unexpected third record: %+v", got[2])
	}
}

type panicAudio struct{}

func (panicAudio) Resolve(ctx context.Context, voiceFile string) string {
	if voiceFile == "bad" {
		panic("resolver exploded")
	}
	return domain.FallbackAudioURL
}

func TestNormalize_PanicDropsOnlyThatRecord(t *testing.T) {
	raws := decode(t, `[
		{"id": "1757322288349", "voiceFileName": "bad"},
		{"id": "1757322711026", "transcribe": "still here"}
	]`)
	got := newNormalizer(panicAudio{}).Normalize(context.Background(), raws)
	if len(got) != 1 || got[0].Text != "still here" {
		t.Fatalf("expected only the healthy record, got %+v", got)
	}
}

func TestAverageRating(t *testing.T) {
	cases := []struct {
		in   []float64
		want int
	}{
		{nil, 3},
		{[]float64{}, 3},
		{[]float64{4, 5}, 5},    // 4.5 rounds away from zero
		{[]float64{2, 3}, 3},    // 2.5 -> 3
		{[]float64{3, 3, 4}, 3}, // 3.33
		{[]float64{4, 5, 5}, 5}, // 4.67
		{[]float64{1}, 1},
		{[]float64{0, 0}, 1},   // clamped up
		{[]float64{9, 10}, 5},  // clamped down
		{[]float64{-3}, 1},     // clamped up
		{[]float64{1.4, 1.4}, 1},
	}
	for _, c := range cases {
		if got := app.AverageRating(c.in); got != c.want {
			t.Fatalf("AverageRating(%v) = %d, want %d", c.in, got, c.want)
		}
	}

	// monotonic in the mean
	prev := 0
	for m := 1.0; m <= 5.0; m += 0.05 {
		got := app.AverageRating([]float64{m})
		if got < prev || got < 1 || got > 5 {
			t.Fatalf("rating not monotonic/bounded at mean %.2f: %d after %d", m, got, prev)
		}
		prev = got
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"a@b.com":                "a***@***.com",
		"alice@mail.example.org": "a***@***.org",
		"bob@localhost":          "b***@***.localhost",
		"élodie@exemple.fr":      "é***@***.fr",
		"@nobody.net":            "u***@***.net",
		"no-at-sign":             "u***@***.com",
		"":                       "u***@***.com",
	}
	pattern := regexp.MustCompile(`^.\*\*\*@\*\*\*\.[^.@]*$`)
	for in, want := range cases {
		got := app.MaskEmail(in)
		if got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
		if !pattern.MatchString(got) {
			t.Fatalf("MaskEmail(%q) = %q does not match the redaction pattern", in, got)
		}
	}
}
