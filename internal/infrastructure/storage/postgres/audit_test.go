package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_CompressesLargeChanges(t *testing.T) {
	store, err := NewAuditStore(nil)
	require.NoError(t, err)

	small := json.RawMessage(`{"status":{"old":"ACTIVE","new":"ON_LEAVE"}}`)
	plain, packed, algo := store.compress(small)
	assert.Equal(t, CompressionNone, algo)
	assert.Equal(t, small, plain)
	assert.Nil(t, packed)

	large := json.RawMessage(`{"notes":{"old":null,"new":"` + strings.Repeat("x", defaultCompressThreshold) + `"}}`)
	plain, packed, algo = store.compress(large)
	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(packed), len(large))

	restored, err := store.decompress(plain, packed, algo)
	require.NoError(t, err)
	assert.JSONEq(t, string(large), string(restored))
}

func TestAuditStore_DecompressRejectsGarbage(t *testing.T) {
	store, err := NewAuditStore(nil)
	require.NoError(t, err)

	_, err = store.decompress(nil, []byte("not zstd"), CompressionZstd)
	assert.Error(t, err)
}
