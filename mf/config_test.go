package mf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		src := strings.NewReader(`# comment line
SHMEM_SIZE 1024
MAX_QUEUES_IN_SHMEM 16
MAX_MSGS_IN_QUEUE 8
SHMEM_NAME /mfqueue_test
`)
		cfg, err := parseConfig(src)
		require.NoError(t, err)
		assert.Equal(t, uint32(1024), cfg.ShmemKiB)
		assert.Equal(t, uint32(16), cfg.MaxQueues)
		assert.Equal(t, uint32(8), cfg.MaxMsgsPerQueue)
		assert.Equal(t, "mfqueue_test", cfg.ShmemName)
	})

	t.Run("ignores unrecognized keys and extra tokens", func(t *testing.T) {
		src := strings.NewReader(`SHMEM_SIZE 1024 extra tokens ignored
MAX_QUEUES_IN_SHMEM 16
MAX_MSGS_IN_QUEUE 8
SHMEM_NAME mfqueue_test
UNKNOWN_KEY 123
`)
		cfg, err := parseConfig(src)
		require.NoError(t, err)
		assert.Equal(t, uint32(1024), cfg.ShmemKiB)
	})

	t.Run("missing key fails with BadConfig", func(t *testing.T) {
		src := strings.NewReader(`SHMEM_SIZE 1024
MAX_QUEUES_IN_SHMEM 16
SHMEM_NAME mfqueue_test
`)
		_, err := parseConfig(src)
		assert.ErrorIs(t, err, ErrBadConfig)
	})

	t.Run("out of range SHMEM_SIZE fails with BadConfig", func(t *testing.T) {
		src := strings.NewReader(`SHMEM_SIZE 1
MAX_QUEUES_IN_SHMEM 16
MAX_MSGS_IN_QUEUE 8
SHMEM_NAME mfqueue_test
`)
		_, err := parseConfig(src)
		assert.ErrorIs(t, err, ErrBadConfig)
	})

	t.Run("non-numeric value fails with BadConfig", func(t *testing.T) {
		src := strings.NewReader(`SHMEM_SIZE notanumber
MAX_QUEUES_IN_SHMEM 16
MAX_MSGS_IN_QUEUE 8
SHMEM_NAME mfqueue_test
`)
		_, err := parseConfig(src)
		assert.ErrorIs(t, err, ErrBadConfig)
	})
}
