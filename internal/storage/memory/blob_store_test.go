package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/billtext-ingest/internal/storage/memory"
)

func TestPutObjectAndGet(t *testing.T) {
	store := memory.NewBlobStore()

	uri, err := store.PutObject(context.Background(), "118/hr/1/formatted-xml.xml", "text/xml", strings.NewReader("<bill/>"))
	require.NoError(t, err)
	assert.Equal(t, "memory://118/hr/1/formatted-xml.xml", uri)

	data, ok := store.Get("118/hr/1/formatted-xml.xml")
	require.True(t, ok)
	assert.Equal(t, "<bill/>", string(data))
	assert.Equal(t, 1, store.Len())
}

func TestPutObjectOverwrites(t *testing.T) {
	store := memory.NewBlobStore()

	_, err := store.PutObject(context.Background(), "p", "", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "p", "", strings.NewReader("second"))
	require.NoError(t, err)

	data, ok := store.Get("p")
	require.True(t, ok)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, 1, store.Len())
}

func TestGetMissing(t *testing.T) {
	store := memory.NewBlobStore()
	_, ok := store.Get("absent")
	assert.False(t, ok)
}
