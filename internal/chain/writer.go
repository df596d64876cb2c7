// Package chain submits statements to the table registry contract through a
// locally held signing key.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rxtech-lab/table-studio/internal/constants"
	"go.uber.org/zap"
)

// registryABI is the subset of the registry contract used to create tables.
const registryABI = `[
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"string","name":"statement","type":"string"}],
	 "name":"create","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"payable","type":"function"},
	{"anonymous":false,"inputs":[
		{"indexed":false,"internalType":"address","name":"owner","type":"address"},
		{"indexed":true,"internalType":"uint256","name":"tableId","type":"uint256"},
		{"indexed":false,"internalType":"string","name":"statement","type":"string"}],
	 "name":"CreateTable","type":"event"}
]`

// DefaultLocalRPC is used for the local development chain when no RPC URL
// is configured.
const DefaultLocalRPC = "http://localhost:8545"

// PendingTable is a submitted, not yet mined create-table transaction.
type PendingTable struct {
	ChainID int64
	TxnHash string
	tx      *types.Transaction
}

// NewPendingTable wraps a known transaction hash. Used by writers that do not
// hold the signed transaction, such as test doubles.
func NewPendingTable(chainID int64, txnHash string) *PendingTable {
	return &PendingTable{ChainID: chainID, TxnHash: txnHash}
}

// ConfirmedTable is the outcome of a mined create-table transaction.
type ConfirmedTable struct {
	ChainID     int64
	TableID     string
	TxnHash     string
	BlockNumber int64
	BlockTime   time.Time
}

// Writer signs and submits create-table transactions.
type Writer struct {
	key     *ecdsa.PrivateKey
	owner   common.Address
	abi     abi.ABI
	rpcURLs map[int64]string
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[int64]*ethclient.Client
}

// NewWriter creates a Writer from a hex encoded private key.
func NewWriter(privateKeyHex string, rpcURLs map[int64]string, logger *zap.Logger) (*Writer, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("signer private key is not configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		key:     key,
		owner:   crypto.PubkeyToAddress(key.PublicKey),
		abi:     parsed,
		rpcURLs: rpcURLs,
		logger:  logger,
		clients: map[int64]*ethclient.Client{},
	}, nil
}

// Owner returns the address that signs and owns created tables.
func (w *Writer) Owner() common.Address {
	return w.owner
}

// CreateTable submits a create statement to the registry contract of chainID.
func (w *Writer) CreateTable(ctx context.Context, chainID int64, statement string) (*PendingTable, error) {
	chain, ok := constants.SupportedChains[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d is not supported", chainID)
	}
	client, err := w.client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(w.key, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(common.HexToAddress(chain.ContractAddress), w.abi, client, client, client)
	tx, err := contract.Transact(opts, "create", w.owner, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to submit create statement: %w", err)
	}

	w.logger.Info("create table transaction submitted",
		zap.Int64("chain_id", chainID),
		zap.String("txn_hash", tx.Hash().Hex()),
		zap.String("owner", w.owner.Hex()))

	return &PendingTable{ChainID: chainID, TxnHash: tx.Hash().Hex(), tx: tx}, nil
}

// WaitConfirmed blocks until the transaction is mined or ctx is done.
func (w *Writer) WaitConfirmed(ctx context.Context, pending *PendingTable) (*ConfirmedTable, error) {
	if pending == nil || pending.tx == nil {
		return nil, fmt.Errorf("no submitted transaction to wait for")
	}
	client, err := w.client(ctx, pending.ChainID)
	if err != nil {
		return nil, err
	}

	receipt, err := bind.WaitMined(ctx, client, pending.tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", pending.TxnHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted in block %s", pending.TxnHash, receipt.BlockNumber)
	}

	tableID, err := TableIDFromLogs(w.abi, receipt.Logs)
	if err != nil {
		return nil, err
	}

	confirmed := &ConfirmedTable{
		ChainID:     pending.ChainID,
		TableID:     tableID,
		TxnHash:     pending.TxnHash,
		BlockNumber: receipt.BlockNumber.Int64(),
		BlockTime:   time.Now(),
	}
	header, err := client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err == nil {
		confirmed.BlockTime = time.Unix(int64(header.Time), 0)
	} else {
		w.logger.Warn("failed to load block header, using local time", zap.Error(err))
	}
	return confirmed, nil
}

// Close releases every open RPC connection.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, c := range w.clients {
		c.Close()
		delete(w.clients, id)
	}
}

func (w *Writer) client(ctx context.Context, chainID int64) (*ethclient.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.clients[chainID]; ok {
		return c, nil
	}
	url, ok := w.rpcURLs[chainID]
	if !ok || url == "" {
		if chainID != 31337 {
			return nil, fmt.Errorf("no RPC URL configured for chain %d", chainID)
		}
		url = DefaultLocalRPC
	}
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %d: %w", chainID, err)
	}
	w.clients[chainID] = c
	return c, nil
}

// TableIDFromLogs extracts the id of the created table from the registry's
// CreateTable event.
func TableIDFromLogs(registry abi.ABI, logs []*types.Log) (string, error) {
	event, ok := registry.Events["CreateTable"]
	if !ok {
		return "", fmt.Errorf("registry ABI has no CreateTable event")
	}
	for _, l := range logs {
		if l == nil || len(l.Topics) < 2 || l.Topics[0] != event.ID {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()).String(), nil
	}
	return "", fmt.Errorf("no CreateTable event found in transaction logs")
}

// RegistryABI returns the parsed registry contract ABI.
func RegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}
