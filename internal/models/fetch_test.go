package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchResult_Record(t *testing.T) {
	fetched := NewFetched("https://a", &Relay{URL: "https://elsewhere", Name: "a"})
	rec := fetched.Record()
	assert.Equal(t, "https://a", rec.URL)
	assert.Equal(t, "a", rec.Name)
	assert.True(t, rec.Seen)
	assert.Equal(t, "fetched", fetched.Outcome.String())

	down := NewUnavailable("https://b", errors.New("refused"))
	rec = down.Record()
	assert.Equal(t, "https://b", rec.URL)
	assert.False(t, rec.Seen)
	assert.True(t, rec.IsPlaceholder())
	assert.Equal(t, "unavailable", down.Outcome.String())
}
