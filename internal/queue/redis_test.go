package queue

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		redisURL string
		addr     string
		password string
		db       int
		tls      bool
	}{
		{name: "host and port", redisURL: "localhost:6379", addr: "localhost:6379"},
		{name: "url without password", redisURL: "redis://localhost:6379", addr: "localhost:6379"},
		{name: "url with password", redisURL: "redis://:mypassword@localhost:6379", addr: "localhost:6379", password: "mypassword"},
		{name: "url with database", redisURL: "redis://:secret@redis.example.com:6379/1", addr: "redis.example.com:6379", password: "secret", db: 1},
		{name: "encoded password", redisURL: "redis://:p%40ss%21@localhost:6379/0", addr: "localhost:6379", password: "p@ss!"},
		{name: "tls", redisURL: "rediss://:password@secure.example.com:6380/0", addr: "secure.example.com:6380", password: "password", tls: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedisURL(tt.redisURL)
			require.NoError(t, err)

			assert.Equal(t, tt.addr, got.Addr)
			assert.Equal(t, tt.password, got.Password)
			assert.Equal(t, tt.db, got.DB)
			if tt.tls {
				require.NotNil(t, got.TLSConfig)
				assert.GreaterOrEqual(t, got.TLSConfig.MinVersion, uint16(tls.VersionTLS12))
			} else {
				assert.Nil(t, got.TLSConfig)
			}
		})
	}
}

func TestParseRedisURL_Rejects(t *testing.T) {
	for _, raw := range []string{"", "http://localhost:6379", "redis://localhost:6379/abc"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRedisURL(raw)
			assert.Error(t, err)
		})
	}
}
