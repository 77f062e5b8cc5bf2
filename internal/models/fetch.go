package models

// FetchOutcome tags a FetchResult.
type FetchOutcome int

const (
	// Fetched means the relay served a parseable information document.
	Fetched FetchOutcome = iota
	// Unavailable means the document could not be obtained or parsed.
	Unavailable
)

func (o FetchOutcome) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// FetchResult is the outcome of one metadata fetch. Relay is set only when
// Outcome is Fetched; Cause only when it is Unavailable.
type FetchResult struct {
	Outcome FetchOutcome
	URL     string
	Relay   *Relay
	Cause   error
}

// NewFetched wraps a successfully fetched record.
func NewFetched(url string, relay *Relay) FetchResult {
	return FetchResult{Outcome: Fetched, URL: url, Relay: relay}
}

// NewUnavailable records why url could not be fetched.
func NewUnavailable(url string, cause error) FetchResult {
	return FetchResult{Outcome: Unavailable, URL: url, Cause: cause}
}

// Record returns the record to persist for this outcome: the fetched document
// with Seen set, or a placeholder carrying only the url.
func (r FetchResult) Record() *Relay {
	if r.Outcome == Fetched && r.Relay != nil {
		rec := r.Relay.Clone()
		rec.URL = r.URL
		rec.Seen = true
		return rec
	}
	return NewPlaceholder(r.URL)
}
