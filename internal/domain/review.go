package domain

// RawRecord is one upstream review record, schema owned by the reviews API.
// Known keys: id, metaData, quess, transcribe, submittedAt, userEmail, voiceFileName.
type RawRecord = map[string]any

// Review is the normalized record returned to the widget.
type Review struct {
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Rating     int     `json:"rating"`
	Text       string  `json:"text"`
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	Sentiment  string  `json:"sentiment"`
	Tone       string  `json:"tone"`
	Complaints bool    `json:"complaints"`
}

type Company struct {
	CompanyName string `json:"companyName"`
	City        string `json:"city"`
	Industry    string `json:"industry"`
}

// FallbackAudioURL is served whenever a recording cannot be signed.
const FallbackAudioURL = "https://www.soundjay.com/misc/sounds/bell-ringing-05.wav"

// PlaceholderCompany is returned until the upstream exposes company details.
var PlaceholderCompany = Company{CompanyName: "API Company", City: "Unknown", Industry: "Unknown"}

type CompanyReviews struct {
	Company Company  `json:"company"`
	Reviews []Review `json:"reviews"`
}
