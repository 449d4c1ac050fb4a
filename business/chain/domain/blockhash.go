// Package domain contains the core domain types for the chain context.
package domain

import "time"

// SlotDuration is the target Solana slot time.
const SlotDuration = 400 * time.Millisecond

// Blockhash is a recent blockhash and the last block height at which a
// transaction referencing it is still valid.
type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
	Slot                 uint64
}

// ConnectionState represents the state of the chain data source.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
	StateDegraded     ConnectionState = "degraded"
)

// Status describes the chain source as last observed.
type Status struct {
	Source     string
	State      ConnectionState
	Slot       uint64
	Latency    time.Duration
	LastUpdate time.Time
	Err        error
}
