package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	secret := []byte("secret")
	token, err := SessionTokenGenerate(secret, "sid-1", time.Hour)
	require.NoError(t, err)

	sid, err := SessionTokenValidate(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)

	_, err = SessionTokenValidate([]byte("other"), token)
	assert.Error(t, err)

	expired, err := SessionTokenGenerate(secret, "sid-2", -time.Minute)
	require.NoError(t, err)
	_, err = SessionTokenValidate(secret, expired)
	assert.Error(t, err)

	_, err = SessionTokenGenerate(nil, "sid-3", time.Hour)
	assert.Error(t, err)
}

func TestResolvePasswordHash(t *testing.T) {
	hashed, err := ResolvePasswordHash("", "plain")
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hashed, "plain"))

	kept, err := ResolvePasswordHash(hashed, "ignored")
	require.NoError(t, err)
	assert.Equal(t, hashed, kept)

	_, err = ResolvePasswordHash("not-a-hash", "")
	assert.Error(t, err)
	_, err = ResolvePasswordHash("", "")
	assert.Error(t, err)
}

func TestLocalBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, "tables/pending.xlsx")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	require.NoError(t, store.Put(ctx, "tables/pending.xlsx", []byte("v1"), ContentTypeXLSX))
	require.NoError(t, store.Put(ctx, "tables/pending.xlsx", []byte("v2"), ContentTypeXLSX))
	data, err := store.Get(ctx, "tables/pending.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	data, err = store.Get(ctx, "../tables/pending.xlsx")
	require.NoError(t, err, "keys cannot escape the root")
	assert.Equal(t, []byte("v2"), data)

	_, err = NewLocalBlobStore(" ")
	assert.Error(t, err)
}

func TestMemoryBlobStore_RecordsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore()
	require.NoError(t, store.Put(ctx, "a", []byte("1"), ""))
	require.NoError(t, store.Put(ctx, "b", []byte("2"), ""))
	require.NoError(t, store.Put(ctx, "a", []byte("3"), ""))

	assert.Equal(t, 2, store.PutCount("a"))
	assert.Equal(t, []string{"a", "b", "a"}, store.PutHistory())

	data, err := store.Get(ctx, "a")
	require.NoError(t, err)
	data[0] = 'x'
	again, _ := store.Get(ctx, "a")
	assert.Equal(t, []byte("3"), again, "Get returns a copy")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, SplitAndTrim("  "))
	assert.Equal(t, []string{"https://a", "https://b"}, SplitAndTrim(" https://a, ,https://b "))
}
