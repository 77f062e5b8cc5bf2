package discovery

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	nostr "github.com/nbd-wtf/go-nostr"
)

// Event kinds the consumer knows how to mine for relay URLs.
const (
	KindMetadata  = 0
	KindRelayList = 10002
)

var validHostname = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Extract returns the relay URLs referenced by evt, normalized to https and
// deduplicated in order of first appearance. Kinds other than relay lists and
// profile metadata yield nothing. Entries that do not parse as relay URLs are dropped.
func Extract(evt *nostr.Event) []string {
	if evt == nil {
		return nil
	}

	var raw []string
	switch evt.Kind {
	case KindRelayList:
		raw = tagValues(evt.Tags, "r")
	case KindMetadata:
		raw = tagValues(evt.Tags, "relay")
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		u, ok := NormalizeURL(r)
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func tagValues(tags nostr.Tags, name string) []string {
	var vals []string
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name {
			vals = append(vals, tag[1])
		}
	}
	return vals
}

// NormalizeURL turns a relay reference (ws, wss, http or https) into the https
// URL its information document is served from. The host is lowercased, the
// fragment and any trailing slash are removed.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss", "http", "https":
	default:
		return "", false
	}

	if !validHost(u.Hostname()) {
		return "", false
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), true
}

func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return validHostname.MatchString(host)
}
