package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

func TestResultKey(t *testing.T) {
	t.Parallel()
	a := ResultKey([]string{"Radius", "Diameter"}, "CCO")
	assert.Equal(t, a, ResultKey([]string{"Radius", "Diameter"}, " CCO "))
	assert.NotEqual(t, a, ResultKey([]string{"Diameter", "Radius"}, "CCO"))
	assert.NotEqual(t, a, ResultKey([]string{"Radius", "Diameter"}, "CCC"))
	assert.Len(t, a, len("result:")+64)
}

func TestResultCache_RoundTrip(t *testing.T) {
	client, mr := newMiniredisClient(t)
	rc := NewResultCache(NewRedisCache(client, nil, WithPrefix("moldesc:")), time.Hour, nil)
	ctx := context.Background()
	keys := []string{"Radius", "PetitjeanIndex", "WPath"}

	_, ok, err := rc.Get(ctx, keys, "C")
	require.NoError(t, err)
	assert.False(t, ok)

	cells := []descriptor.Cell{
		{Name: "Radius", Value: descriptor.IntValue(2)},
		{Name: "PetitjeanIndex", Value: descriptor.FloatValue(0.5)},
		{Name: "WPath", Value: descriptor.NaN(), Error: "graph is disconnected"},
	}
	require.NoError(t, rc.Put(ctx, keys, "CCCC", cells))
	assert.True(t, mr.Exists("moldesc:"+ResultKey(keys, "CCCC")))

	got, ok, err := rc.Get(ctx, keys, "CCCC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, descriptor.IntValue(2), got[0].Value)
	assert.Equal(t, descriptor.FloatValue(0.5), got[1].Value)
	assert.True(t, got[2].Value.IsNaN())
	assert.Equal(t, "graph is disconnected", got[2].Error)

	n, err := rc.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok, err = rc.Get(ctx, keys, "CCCC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultCache_WidthMismatchIsMiss(t *testing.T) {
	client, _ := newMiniredisClient(t)
	cache := NewRedisCache(client, nil)
	rc := NewResultCache(cache, time.Hour, nil)
	ctx := context.Background()
	keys := []string{"Radius", "Diameter"}

	require.NoError(t, cache.Set(ctx, ResultKey(keys, "CC"), []descriptor.Cell{{Name: "Radius"}}, 0))
	_, ok, err := rc.Get(ctx, keys, "CC")
	require.NoError(t, err)
	assert.False(t, ok)
}

//Personal.AI order the ending
