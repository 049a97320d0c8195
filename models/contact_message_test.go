package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStatusTimestampsSetOnce(t *testing.T) {
	msg := ContactMessage{Status: ContactStatusNew}
	ApplyStatusTimestamps(&msg, time.Now())
	assert.Nil(t, msg.RepliedAt)
	assert.Nil(t, msg.ResolvedAt)

	first := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	msg.Status = ContactStatusReplied
	ApplyStatusTimestamps(&msg, first)
	require.NotNil(t, msg.RepliedAt)
	assert.Equal(t, first, *msg.RepliedAt)
	assert.Nil(t, msg.ResolvedAt)

	// Bounce back through read and reply again with a later clock
	msg.Status = ContactStatusRead
	ApplyStatusTimestamps(&msg, first.Add(time.Hour))
	msg.Status = ContactStatusReplied
	ApplyStatusTimestamps(&msg, first.Add(2*time.Hour))
	assert.Equal(t, first, *msg.RepliedAt, "repliedAt is write-once")

	resolved := first.Add(3 * time.Hour)
	msg.Status = ContactStatusResolved
	ApplyStatusTimestamps(&msg, resolved)
	require.NotNil(t, msg.ResolvedAt)
	assert.Equal(t, resolved, *msg.ResolvedAt)

	msg.Status = ContactStatusResolved
	ApplyStatusTimestamps(&msg, resolved.Add(time.Hour))
	assert.Equal(t, resolved, *msg.ResolvedAt, "resolvedAt is write-once")
}

func TestValidContactStatus(t *testing.T) {
	for _, s := range ContactStatuses {
		assert.True(t, ValidContactStatus(s))
	}
	assert.False(t, ValidContactStatus("archived"))
	assert.False(t, ValidContactStatus(""))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jane@example.com"))
	assert.True(t, ValidEmail("jane.doe@mail.example.co"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail("@example.com"))
}
