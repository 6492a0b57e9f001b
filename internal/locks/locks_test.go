package locks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allModes = []Mode{
	AccessShare, RowShare, RowExclusive, ShareUpdateExclusive,
	Share, ShareRowExclusive, Exclusive, AccessExclusive,
}

func TestBlocksReadsMatchesConflictWithAccessShare(t *testing.T) {
	for _, m := range allModes {
		require.Equal(t, ConflictsWith(m, AccessShare), BlocksReads(m), m.String())
	}
}

func TestBlocksWritesMatchesConflictWithRowExclusive(t *testing.T) {
	for _, m := range allModes {
		require.Equal(t, ConflictsWith(m, RowExclusive), BlocksWrites(m), m.String())
	}
}

func TestBlocksOtherDDLMatchesConflictWithAccessExclusive(t *testing.T) {
	for _, m := range allModes {
		require.Equal(t, ConflictsWith(m, AccessExclusive), BlocksOtherDDL(m), m.String())
	}
}

func TestAccessExclusiveBlocksEverything(t *testing.T) {
	for _, m := range allModes {
		require.True(t, ConflictsWith(AccessExclusive, m), m.String())
	}
}

func TestAccessShareOnlyConflictsWithAccessExclusive(t *testing.T) {
	for _, m := range allModes {
		want := m == AccessExclusive
		require.Equal(t, want, ConflictsWith(AccessShare, m), m.String())
	}
}

func TestStronger(t *testing.T) {
	require.Equal(t, AccessExclusive, Stronger(AccessShare, AccessExclusive))
	require.Equal(t, Share, Stronger(Share, RowShare))
}

func TestOrdinalOrder(t *testing.T) {
	require.Less(t, int(AccessShare), int(RowShare))
	require.Less(t, int(ShareRowExclusive), int(Exclusive))
	require.Less(t, int(Exclusive), int(AccessExclusive))
}
