package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/storage"
	"github.com/Comcast/treetags/util/testutil"

	"github.com/stretchr/testify/require"
)

func TestImpl(t *testing.T) {
	// Just confirm that this code compiles.
	var _ storage.Storage = &Storage{}
	var _ storage.Lifecycle = &Storage{}
}

func open(t *testing.T, filename string) *Storage {
	t.Helper()
	s, err := NewStorage(filename)
	require.NoError(t, err)
	s.Logger = testutil.Logger(t)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestBasics(t *testing.T) {
	var (
		ctx      = context.Background()
		filename = filepath.Join(t.TempDir(), "storage.db")
		s        = open(t, filename)
	)

	state := core.ViewState{
		"0_0": false,
		"0_1": core.NoneSelected,
		"0_2": &core.IterationState{
			Counter: 3,
			Kind:    core.SourceMap,
			Elements: []core.IterationElement{
				{Key: "0", Value: "likes", Index: 0},
				{Key: "2", Value: "wants", Index: 1},
			},
		},
	}
	require.NoError(t, s.Save(ctx, "simpsons", state))
	require.NoError(t, s.Save(ctx, "flanders", core.ViewState{}))

	ids, err := s.Views(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"flanders", "simpsons"}, ids)

	// Survives a reopen.
	require.NoError(t, s.Close(ctx))
	s = open(t, filename)
	defer func() {
		require.NoError(t, s.Close(ctx))
	}()

	got, err := s.Load(ctx, "simpsons")
	require.NoError(t, err)
	require.Equal(t, state, got)

	require.NoError(t, s.Remove(ctx, "simpsons"))
	got, err = s.Load(ctx, "simpsons")
	require.NoError(t, err)
	require.Nil(t, got)

	// Removing twice is fine.
	require.NoError(t, s.Remove(ctx, "simpsons"))
}

func TestNotOpen(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	_, err = s.Load(context.Background(), "v")
	require.ErrorIs(t, err, NotOpen)
	require.NoError(t, s.Close(context.Background()))
}

func TestNoFilename(t *testing.T) {
	_, err := NewStorage("")
	require.Error(t, err)
}
