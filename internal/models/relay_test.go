package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestRelay_CloneIsDeep(t *testing.T) {
	orig := &Relay{
		URL:           "https://relay.example.com",
		Name:          "example",
		SupportedNIPs: []int{1, 11},
		Limitation:    &Limitation{MaxFilters: intPtr(10)},
		Fees: map[string][]FeeSchedule{
			"admission": {{Amount: 1000, Unit: "msats", Kinds: []int{1}}},
		},
		CreatedAt: time.Unix(100, 0),
		UpdatedAt: time.Unix(200, 0),
		Seen:      true,
	}

	c := orig.Clone()
	require.Equal(t, orig, c)

	c.SupportedNIPs[0] = 99
	*c.Limitation.MaxFilters = 1
	c.Fees["admission"][0].Kinds[0] = 7

	require.Equal(t, 1, orig.SupportedNIPs[0])
	require.Equal(t, 10, *orig.Limitation.MaxFilters)
	require.Equal(t, 1, orig.Fees["admission"][0].Kinds[0])
}

func TestRelay_MergeFromKeepsIdentity(t *testing.T) {
	created := time.Unix(100, 0)
	dst := &Relay{URL: "https://a", Name: "old", Icon: "x", CreatedAt: created, Seen: false}
	src := &Relay{URL: "https://other", Name: "new", Seen: true}

	dst.MergeFrom(src)

	require.Equal(t, "https://a", dst.URL)
	require.Equal(t, "new", dst.Name)
	require.Empty(t, dst.Icon)
	require.Equal(t, created, dst.CreatedAt)
	require.False(t, dst.Seen)
}

func TestNewPlaceholder(t *testing.T) {
	p := NewPlaceholder("https://relay.example.com")
	require.Equal(t, "https://relay.example.com", p.URL)
	require.False(t, p.Seen)
	require.True(t, p.IsPlaceholder())

	p.Name = "n"
	require.False(t, p.IsPlaceholder())
}

func TestRelay_DecodeNIP11Document(t *testing.T) {
	doc := `{
		"name": "JellyFish",
		"supported_nips": [1, 2, 11, 65],
		"limitation": {"max_message_length": 70000, "auth_required": false},
		"retention": [{"kinds": [0, 1], "time": 3600}],
		"fees": {"subscription": [{"amount": 3000, "unit": "sats", "period": 2628003}]}
	}`

	var r Relay
	require.NoError(t, json.Unmarshal([]byte(doc), &r))
	require.Equal(t, "JellyFish", r.Name)
	require.Equal(t, []int{1, 2, 11, 65}, r.SupportedNIPs)
	require.Equal(t, 70000, *r.Limitation.MaxMessageLength)
	require.NotNil(t, r.Limitation.AuthRequired)
	require.False(t, *r.Limitation.AuthRequired)
	require.Nil(t, r.Limitation.MaxFilters)
	require.JSONEq(t, `[{"kinds": [0, 1], "time": 3600}]`, string(r.Retention))
	require.Equal(t, 2628003, *r.Fees["subscription"][0].Period)
}
