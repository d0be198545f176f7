package implhash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/implhash"
	"go.trai.ch/bob/internal/core/domain"
)

func TestHasher_HashImplementation_Noop(t *testing.T) {
	h := implhash.NewHasher()
	snap, err := h.HashImplementation(&domain.Task{})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "noop", snap[0].TypeName)
}

func TestHasher_HashImplementation_UnresolvableCommandIsStillDeterministic(t *testing.T) {
	h := implhash.NewHasher()
	task := &domain.Task{Command: []string{"definitely-not-a-real-executable-xyz"}}

	a, err := h.HashImplementation(task)
	require.NoError(t, err)
	b, err := h.HashImplementation(task)
	require.NoError(t, err)

	assert.True(t, a.IsUpToDate(b))
}

func TestHasher_HashImplementation_DifferentCommandsDiffer(t *testing.T) {
	h := implhash.NewHasher()

	a, err := h.HashImplementation(&domain.Task{Command: []string{"one-fake-binary"}})
	require.NoError(t, err)
	b, err := h.HashImplementation(&domain.Task{Command: []string{"another-fake-binary"}})
	require.NoError(t, err)

	assert.False(t, a.IsUpToDate(b))
}
