package discovery

import (
	"testing"
	"time"

	nostr "github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func signedRelayList(t *testing.T, urls ...string) *nostr.Event {
	t.Helper()
	tags := make(nostr.Tags, 0, len(urls))
	for _, u := range urls {
		tags = append(tags, nostr.Tag{"r", u})
	}
	evt := &nostr.Event{
		Kind:      KindRelayList,
		CreatedAt: nostr.Timestamp(time.Now().Add(-time.Hour).Unix()),
		Tags:      tags,
	}
	require.NoError(t, evt.Sign(nostr.GeneratePrivateKey()))
	return evt
}

func TestVerifyEvent(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.True(t, VerifyEvent(signedRelayList(t, "wss://relay.example.com")))
	})

	t.Run("tampered tags", func(t *testing.T) {
		evt := signedRelayList(t, "wss://relay.example.com")
		evt.Tags = append(evt.Tags, nostr.Tag{"r", "wss://evil.example.com"})
		require.False(t, VerifyEvent(evt))
	})

	t.Run("id recomputed but signature stale", func(t *testing.T) {
		evt := signedRelayList(t, "wss://relay.example.com")
		evt.Content = "changed"
		evt.ID = evt.GetID()
		require.False(t, VerifyEvent(evt))
	})

	t.Run("garbage pubkey", func(t *testing.T) {
		evt := signedRelayList(t, "wss://relay.example.com")
		evt.PubKey = "zz"
		evt.ID = evt.GetID()
		require.False(t, VerifyEvent(evt))
	})
}
