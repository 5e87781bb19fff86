package config

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceID(t *testing.T) {
	ctx := context.Background()

	t.Run("generated once", func(t *testing.T) {
		store := NewMemoryStore()

		first, err := InstanceID(ctx, store)
		require.NoError(t, err)
		_, err = uuid.Parse(first)
		assert.NoError(t, err)

		second, err := InstanceID(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, store.Saves(), 1)
	})

	t.Run("existing id kept", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(KeyInstanceID, " existing-id\n")

		id, err := InstanceID(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, "existing-id", id)
		assert.Empty(t, store.Saves())
	})

	t.Run("blank id replaced", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(KeyInstanceID, "   ")

		id, err := InstanceID(ctx, store)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("load failure", func(t *testing.T) {
		store := NewMemoryStore()
		store.FailLoads(errors.New("disk gone"))

		_, err := InstanceID(ctx, store)
		assert.ErrorContains(t, err, "disk gone")
	})

	t.Run("save failure", func(t *testing.T) {
		store := NewMemoryStore()
		store.FailSaves(errors.New("read-only"))

		_, err := InstanceID(ctx, store)
		assert.ErrorContains(t, err, "read-only")
	})
}
