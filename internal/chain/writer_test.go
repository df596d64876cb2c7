package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known first account of local development nodes.
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcab78d5ba0b8f2ff80"

func TestNewWriter(t *testing.T) {
	t.Run("DerivesOwner", func(t *testing.T) {
		w, err := NewWriter(testPrivateKey, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), w.Owner())
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := NewWriter("", nil, nil)
		assert.Error(t, err)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		_, err := NewWriter("0xnothex", nil, nil)
		assert.Error(t, err)
	})
}

func TestCreateTableRequiresRPC(t *testing.T) {
	w, err := NewWriter(testPrivateKey, map[int64]string{}, nil)
	require.NoError(t, err)

	_, err = w.CreateTable(context.Background(), 80002, "CREATE TABLE t_80002 (id integer)")
	assert.ErrorContains(t, err, "no RPC URL configured")

	_, err = w.CreateTable(context.Background(), 99999, "CREATE TABLE t_99999 (id integer)")
	assert.ErrorContains(t, err, "not supported")
}

func TestWaitConfirmedWithoutTransaction(t *testing.T) {
	w, err := NewWriter(testPrivateKey, nil, nil)
	require.NoError(t, err)

	_, err = w.WaitConfirmed(context.Background(), NewPendingTable(31337, "0xabc"))
	assert.Error(t, err)
}

func TestTableIDFromLogs(t *testing.T) {
	registry, err := RegistryABI()
	require.NoError(t, err)
	eventID := registry.Events["CreateTable"].ID

	logs := []*types.Log{
		{Topics: []common.Hash{common.HexToHash("0x01")}},
		{Topics: []common.Hash{eventID, common.BigToHash(big.NewInt(345))}},
	}
	tableID, err := TableIDFromLogs(registry, logs)
	require.NoError(t, err)
	assert.Equal(t, "345", tableID)

	_, err = TableIDFromLogs(registry, logs[:1])
	assert.Error(t, err)
}
