package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAIQuota_PerChat(t *testing.T) {
	q := NewAIQuota(2, time.Hour)

	assert.True(t, q.Allow(testGroup))
	assert.True(t, q.Allow(testGroup))
	assert.False(t, q.Allow(testGroup), "third answer within the hour is refused")
	assert.True(t, q.Allow(-7), "other chats have their own quota")
}

func TestAIQuota_Disabled(t *testing.T) {
	q := NewAIQuota(0, time.Hour)
	assert.Nil(t, q)

	for i := 0; i < 100; i++ {
		assert.True(t, q.Allow(testGroup))
	}
}
