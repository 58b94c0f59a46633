package cache_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheopts "github.com/openrag/ragserver/pkg/options/cache"
)

func TestNewOptions(t *testing.T) {
	opts := cacheopts.NewOptions()

	assert.False(t, opts.Enabled)
	assert.Equal(t, 1*time.Hour, opts.TTL)
	assert.Equal(t, "rag:search:", opts.KeyPrefix)
	require.NotNil(t, opts.Redis)
}

func TestAddFlagsNamespace(t *testing.T) {
	opts := cacheopts.NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	// Redis 标志与配置路径 cache.redis.* 使用同一命名空间
	require.NoError(t, fs.Parse([]string{
		"--cache.enabled=true",
		"--cache.ttl=30m",
		"--cache.redis.host=10.0.0.1",
		"--cache.redis.port=6380",
	}))

	assert.True(t, opts.Enabled)
	assert.Equal(t, 30*time.Minute, opts.TTL)
	assert.Equal(t, "10.0.0.1", opts.Redis.Host)
	assert.Equal(t, 6380, opts.Redis.Port)

	// 未加前缀的 redis.* 不应注册
	assert.Nil(t, fs.Lookup("redis.host"))
}

func TestValidateSkipsRedisWhenDisabled(t *testing.T) {
	opts := cacheopts.NewOptions()
	opts.Redis.Port = -1

	// 禁用时不校验 Redis 配置
	assert.Empty(t, opts.Validate())

	opts.Enabled = true
	assert.NotEmpty(t, opts.Validate())
}
