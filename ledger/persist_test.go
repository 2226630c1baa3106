package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/veilpay/core/types"
)

func TestReopenPersistentLedger(t *testing.T) {
	cfg := Defaults
	cfg.DataDir = t.TempDir()

	l, err := Open(&cfg)
	require.NoError(t, err)
	key, owner := newKey(t, 3)
	_, err = l.Apply(context.Background(), types.SignInstruction(types.NewInitBalance(), key))
	require.NoError(t, err)
	genesis := l.clock.(*SlotClock).Genesis()
	require.NoError(t, l.Close())

	l, err = Open(&cfg)
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, genesis.Equal(l.clock.(*SlotClock).Genesis()))
	assert.Equal(t, uint64(1), l.EventCount())
	bal, err := l.BalanceOf(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal.Nonce)

	events, err := l.Events(0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.IsType(t, &types.BalanceInitializedEvent{}, events[0].Event)
}
