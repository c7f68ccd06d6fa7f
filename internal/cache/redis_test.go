package cache

import (
	"testing"
	"time"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute)
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.ttl)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:flights:turkey:thailand:2026-01-15:2026-01-25",
		FlightsKey("Turkey", "Thailand", "2026-01-15", "2026-01-25"))
	assert.Equal(t, "cache:stays:chiang_mai:2026-01-15:2026-01-18:hostel:75",
		StaysKey("Chiang  Mai", "2026-01-15", "2026-01-18", "hostel", 75))

	id := uuid.MustParse("6f1c2a8e-1d7b-4a4e-9a51-0c3f7e3b2d10")
	assert.Equal(t, "lock:trip:6f1c2a8e-1d7b-4a4e-9a51-0c3f7e3b2d10", RunLockKey(id))
}
