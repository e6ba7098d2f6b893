package redis

import (
	"testing"

	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyKeyNamespacing(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "gm:idempotency:PATCH /api/v1/notifications:abc", c.IdempotencyKey("PATCH /api/v1/notifications", "abc"))
	assert.Equal(t, "gm:idempotency:abc", c.IdempotencyKey("", "abc"))
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}

func TestOptionsFromConfigUsesAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "127.0.0.1:6379", Password: "pw", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 1, opts.DB)
}
