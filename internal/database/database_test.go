package database

import (
	"context"
	"testing"
	"time"

	"promo-console/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "127.0.0.1",
		Port:            1,
		User:            "promo",
		Password:        "promo",
		Database:        "promoconsole",
		MaxConnections:  4,
		MinConnections:  0,
		MaxConnLifetime: 60,
	}
}

func TestNewPoolConfig(t *testing.T) {
	cfg := testDatabaseConfig()

	poolConfig, err := newPoolConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, int32(4), poolConfig.MaxConns)
	assert.Equal(t, int32(0), poolConfig.MinConns)
	assert.Equal(t, 60*time.Second, poolConfig.MaxConnLifetime)
	assert.Equal(t, "127.0.0.1", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(1), poolConfig.ConnConfig.Port)
	assert.Equal(t, "promoconsole", poolConfig.ConnConfig.Database)
	assert.Equal(t, ApplicationName, poolConfig.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, testDatabaseConfig(), zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "failed to ping database")
}
