package models

import (
	"encoding/json"
	"time"
)

// Relay is everything known about a single relay endpoint, keyed by URL.
// Descriptive fields mirror the NIP-11 relay information document; they are all
// optional and stay at their zero value when the relay did not publish them.
type Relay struct {
	URL            string                   `json:"url"`
	Name           string                   `json:"name,omitempty"`
	Description    string                   `json:"description,omitempty"`
	PubKey         string                   `json:"pubkey,omitempty"`
	Contact        string                   `json:"contact,omitempty"`
	SupportedNIPs  []int                    `json:"supported_nips,omitempty"`
	Software       string                   `json:"software,omitempty"`
	Version        string                   `json:"version,omitempty"`
	Limitation     *Limitation              `json:"limitation,omitempty"`
	Retention      json.RawMessage          `json:"retention,omitempty"`
	RelayCountries []string                 `json:"relay_countries,omitempty"`
	LanguageTags   []string                 `json:"language_tags,omitempty"`
	Tags           []string                 `json:"tags,omitempty"`
	PostingPolicy  string                   `json:"posting_policy,omitempty"`
	PaymentsURL    string                   `json:"payments_url,omitempty"`
	Fees           map[string][]FeeSchedule `json:"fees,omitempty"`
	Icon           string                   `json:"icon,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Seen      bool      `json:"seen"`
}

// Limitation holds the limits a relay advertises. Nil means "not advertised".
type Limitation struct {
	MaxMessageLength *int  `json:"max_message_length,omitempty"`
	MaxSubscriptions *int  `json:"max_subscriptions,omitempty"`
	MaxFilters       *int  `json:"max_filters,omitempty"`
	MaxLimit         *int  `json:"max_limit,omitempty"`
	MaxSubidLength   *int  `json:"max_subid_length,omitempty"`
	MinPrefix        *int  `json:"min_prefix,omitempty"`
	MaxEventTags     *int  `json:"max_event_tags,omitempty"`
	MaxContentLength *int  `json:"max_content_length,omitempty"`
	MinPowDifficulty *int  `json:"min_pow_difficulty,omitempty"`
	AuthRequired     *bool `json:"auth_required,omitempty"`
	PaymentRequired  *bool `json:"payment_required,omitempty"`
	RestrictedWrites *bool `json:"restricted_writes,omitempty"`
}

// FeeSchedule is one entry of a fee category (admission, subscription, publication...).
type FeeSchedule struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
	Period *int   `json:"period,omitempty"`
	Kinds  []int  `json:"kinds,omitempty"`
}

// NewPlaceholder returns the record stored for a relay whose metadata could not be fetched.
func NewPlaceholder(url string) *Relay {
	return &Relay{URL: url}
}

// IsPlaceholder reports whether r carries no descriptive metadata at all.
func (r *Relay) IsPlaceholder() bool {
	return r.Name == "" && r.Description == "" && r.PubKey == "" && r.Contact == "" &&
		len(r.SupportedNIPs) == 0 && r.Software == "" && r.Version == "" &&
		r.Limitation == nil && len(r.Retention) == 0 && len(r.RelayCountries) == 0 &&
		len(r.LanguageTags) == 0 && len(r.Tags) == 0 && r.PostingPolicy == "" &&
		r.PaymentsURL == "" && len(r.Fees) == 0 && r.Icon == ""
}

// MergeFrom overwrites every descriptive field of r with the ones from src.
// URL, timestamps and Seen are left untouched.
func (r *Relay) MergeFrom(src *Relay) {
	r.Name = src.Name
	r.Description = src.Description
	r.PubKey = src.PubKey
	r.Contact = src.Contact
	r.SupportedNIPs = cloneSlice(src.SupportedNIPs)
	r.Software = src.Software
	r.Version = src.Version
	r.Limitation = src.Limitation.Clone()
	r.Retention = cloneSlice(src.Retention)
	r.RelayCountries = cloneSlice(src.RelayCountries)
	r.LanguageTags = cloneSlice(src.LanguageTags)
	r.Tags = cloneSlice(src.Tags)
	r.PostingPolicy = src.PostingPolicy
	r.PaymentsURL = src.PaymentsURL
	r.Fees = cloneFees(src.Fees)
	r.Icon = src.Icon
}

// Clone returns a deep copy of r.
func (r *Relay) Clone() *Relay {
	if r == nil {
		return nil
	}
	c := &Relay{
		URL:       r.URL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Seen:      r.Seen,
	}
	c.MergeFrom(r)
	return c
}

// Clone returns a deep copy of l.
func (l *Limitation) Clone() *Limitation {
	if l == nil {
		return nil
	}
	return &Limitation{
		MaxMessageLength: clonePtr(l.MaxMessageLength),
		MaxSubscriptions: clonePtr(l.MaxSubscriptions),
		MaxFilters:       clonePtr(l.MaxFilters),
		MaxLimit:         clonePtr(l.MaxLimit),
		MaxSubidLength:   clonePtr(l.MaxSubidLength),
		MinPrefix:        clonePtr(l.MinPrefix),
		MaxEventTags:     clonePtr(l.MaxEventTags),
		MaxContentLength: clonePtr(l.MaxContentLength),
		MinPowDifficulty: clonePtr(l.MinPowDifficulty),
		AuthRequired:     clonePtr(l.AuthRequired),
		PaymentRequired:  clonePtr(l.PaymentRequired),
		RestrictedWrites: clonePtr(l.RestrictedWrites),
	}
}

func cloneFees(fees map[string][]FeeSchedule) map[string][]FeeSchedule {
	if fees == nil {
		return nil
	}
	out := make(map[string][]FeeSchedule, len(fees))
	for category, schedules := range fees {
		copied := make([]FeeSchedule, len(schedules))
		for i, s := range schedules {
			copied[i] = FeeSchedule{
				Amount: s.Amount,
				Unit:   s.Unit,
				Period: clonePtr(s.Period),
				Kinds:  cloneSlice(s.Kinds),
			}
		}
		out[category] = copied
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
