package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attache/internal/casefile/service"
	"attache/pkg/platform/sentinel"
)

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	meta := service.DocumentMeta{
		Ref:         "doc-passport-scan",
		FileName:    "passport.pdf",
		ContentType: "application/pdf",
		SizeBytes:   48213,
	}
	require.NoError(t, store.Put(ctx, meta))

	got, err := store.Get(ctx, "doc-passport-scan")
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestGetUnknownReference(t *testing.T) {
	_, err := NewInMemory().Get(context.Background(), "doc-missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPutRequiresReference(t *testing.T) {
	err := NewInMemory().Put(context.Background(), service.DocumentMeta{FileName: "orphan.pdf"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}
