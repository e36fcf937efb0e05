package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := FileStore{Path: filepath.Join(t.TempDir(), "cart.json")}

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.NotNil(t, empty.Items)

	r := NewReducer(testCatalog())
	s := mustApply(t, r, State{}, AddItem{Slug: "house-blend", Quantity: 2}, SetSubscription{On: true})
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	require.NoError(t, os.WriteFile(store.Path, []byte("{not json"), 0o600))
	_, err = store.Load(ctx)
	assert.Error(t, err)
}
