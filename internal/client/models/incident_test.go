package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncident_MarkResolved(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "new becomes resolved", tags: []string{"кража", TagNew}, want: []string{"кража", TagResolved}},
		{name: "already resolved", tags: []string{TagResolved, TagNew}, want: []string{TagResolved}},
		{name: "no tags", tags: nil, want: []string{TagResolved}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &Incident{Tags: tt.tags, Unread: true}
			i.MarkResolved()
			assert.Equal(t, tt.want, i.Tags)
			assert.False(t, i.Unread)
		})
	}
}

func TestIncident_DecodeOptionalLocation(t *testing.T) {
	var withLoc, withoutLoc Incident

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","latitude":43.25,"longitude":76.94,"tags":["новое"]}`), &withLoc))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","tags":[]}`), &withoutLoc))

	assert.True(t, withLoc.HasLocation())
	assert.True(t, withLoc.HasTag(TagNew))
	assert.False(t, withoutLoc.HasLocation())
}
