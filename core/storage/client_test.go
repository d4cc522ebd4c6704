package storage_test

import (
	"testing"

	"unisync/core/storage"
	"unisync/core/storage/mocks"

	"github.com/stretchr/testify/assert"
)

var _ storage.Client = (*mocks.Client)(nil)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{
			name: "Plain endpoint",
			cfg:  storage.Config{Endpoint: "localhost:9000", AccessKey: "key", SecretKey: "secret", Bucket: "catalog-snapshots"},
		},
		{
			name: "Endpoint with http scheme",
			cfg:  storage.Config{Endpoint: "http://localhost:9000", AccessKey: "key", SecretKey: "secret"},
		},
		{
			name: "S3 over TLS",
			cfg:  storage.Config{Endpoint: "https://s3.amazonaws.com", AccessKey: "key", SecretKey: "secret", UseSSL: true, Region: "ca-central-1"},
		},
		{
			name: "Zero timeout falls back to default",
			cfg:  storage.Config{Endpoint: "localhost:9000", TimeoutSeconds: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
