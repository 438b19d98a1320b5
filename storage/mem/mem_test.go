package mem

import (
	"context"
	"testing"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/storage"

	"github.com/stretchr/testify/require"
)

func TestImpl(t *testing.T) {
	var _ storage.Storage = &Storage{}
}

func TestBasics(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	state, err := s.Load(ctx, "homer")
	require.NoError(t, err)
	require.Nil(t, state)

	is := &core.IterationState{
		Counter: 2,
		Kind:    core.SourceList,
		Elements: []core.IterationElement{
			{Key: "0", Value: "tacos", Index: 0},
			{Key: "1", Value: "queso", Index: 1},
		},
	}
	saved := core.ViewState{
		"0_1": true,
		"0_2": 1,
		"0_3": is,
	}
	require.NoError(t, s.Save(ctx, "homer", saved))
	require.Equal(t, 1, s.Len())

	got, err := s.Load(ctx, "homer")
	require.NoError(t, err)
	require.Equal(t, saved, got)

	// The loaded state is a copy.
	got["0_1"] = false
	again, err := s.Load(ctx, "homer")
	require.NoError(t, err)
	require.Equal(t, true, again["0_1"])

	require.NoError(t, s.Remove(ctx, "homer"))
	require.Equal(t, 0, s.Len())
	state, err = s.Load(ctx, "homer")
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestUnserializable(t *testing.T) {
	s := NewStorage()
	err := s.Save(context.Background(), "v", core.ViewState{"x": func() {}})
	require.Error(t, err)
	require.Equal(t, 0, s.Len())
}
