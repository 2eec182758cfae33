package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpStoreDrainsAndReturnsNoURI(t *testing.T) {
	t.Parallel()

	body := strings.NewReader("<bill>text</bill>")
	uri, err := NoOpStore{}.PutObject(context.Background(), "118/hr/1/formatted-xml.xml", "text/xml", body)
	require.NoError(t, err)
	require.Empty(t, uri)
	// The reader is consumed, matching the real backends.
	require.Zero(t, body.Len())
}
