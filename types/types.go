package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceDescriptor describes a purchasable resource. Descriptors are loaded
// once at startup and never mutated afterwards.
type ResourceDescriptor struct {
	// Unique identifier of the resource (e.g. "premium_content").
	ResourceID string `json:"resourceId" validate:"required"`

	// Price in display units of the base currency (e.g. SOL).
	Price decimal.Decimal `json:"price"`

	// Human readable description shown in discovery metadata.
	Description string `json:"description,omitempty"`
}

// Checkpoint is a point-in-time marker of the ledger, used both as a
// freshness token for built transactions and for confirmation depth.
type Checkpoint struct {
	Slot uint64 `json:"slot"`

	// Recent blockhash (Solana) or head block hash (EVM).
	Blockhash string `json:"blockhash"`

	// Last block height at which a transaction built against this
	// checkpoint remains valid. Zero when the ledger does not bound it.
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}

// Finality is the confirmation level of a transaction on the ledger.
type Finality string

const (
	FinalityProcessed Finality = "processed"
	FinalityConfirmed Finality = "confirmed"
	FinalityFinalized Finality = "finalized"
)

var finalityRank = map[Finality]int{
	FinalityProcessed: 1,
	FinalityConfirmed: 2,
	FinalityFinalized: 3,
}

// AtLeast reports whether f meets or exceeds the given threshold.
func (f Finality) AtLeast(threshold Finality) bool {
	return finalityRank[f] >= finalityRank[threshold]
}

func (f Finality) Valid() bool {
	_, ok := finalityRank[f]
	return ok
}

// ConfirmedTransfer is the ledger's view of a submitted transfer, as returned
// by a Client. Amount is in integer base units (lamports, wei).
type ConfirmedTransfer struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	Finality    Finality        `json:"finality"`
	Slot        uint64          `json:"slot"`
}

// VerifiedTransfer is produced by the verifier once a reference has passed
// every check and been consumed. Amount is in integer base units.
type VerifiedTransfer struct {
	Payer     string          `json:"payer"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Slot      uint64          `json:"slot"`
}

// PaymentRecord is a single entry of the access ledger. Records are created
// only by a successful verification and are never updated; expiry is a
// predicate over ExpiresAt, not a state change.
type PaymentRecord struct {
	Payer      string          `json:"payer"`
	ResourceID string          `json:"resourceId"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	GrantedAt  time.Time       `json:"grantedAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// Expired reports whether the record's grant has lapsed at the given time.
func (r PaymentRecord) Expired(at time.Time) bool {
	return at.After(r.ExpiresAt)
}

// PaymentRequest carries a payment proof submitted by a caller. Amount is the
// claimed amount in display units.
type PaymentRequest struct {
	Payer      string          `json:"payer" validate:"required"`
	ResourceID string          `json:"resourceId" validate:"required"`
	Reference  string          `json:"reference" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// PaymentReceipt is returned on a successful ProcessPayment.
type PaymentReceipt struct {
	Granted    bool            `json:"granted"`
	ResourceID string          `json:"resourceId"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// BuildHint tells a caller what the transaction builder needs: where to pay
// and how much, in both display and base units.
type BuildHint struct {
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	BaseUnits   decimal.Decimal `json:"baseUnits"`
}

// AccessStatus is the result of a CheckAccess call. When access is not
// granted, Price and Hint describe how to obtain it.
type AccessStatus struct {
	Granted    bool             `json:"granted"`
	ResourceID string           `json:"resourceId"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Hint       *BuildHint       `json:"hint,omitempty"`
}

// UnsignedTransaction is a serialized, unsigned transfer instruction. It is
// valid only for a bounded window anchored at the embedded checkpoint; the
// payer signs and broadcasts it off-system.
type UnsignedTransaction struct {
	// Base64-encoded wire transaction.
	TxBase64 string `json:"txBase64"`

	Payer       string          `json:"payer"`
	Destination string          `json:"destination"`
	BaseUnits   decimal.Decimal `json:"baseUnits"`
	Checkpoint  Checkpoint      `json:"checkpoint"`
}

// ActionMetadataInput describes one input field of the construction endpoint.
type ActionMetadataInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// ActionMetadata is the discovery document served by the transaction
// construction endpoint: a pure data dump, no verification logic.
type ActionMetadata struct {
	Type        string                `json:"type"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Label       string                `json:"label"`
	Inputs      []ActionMetadataInput `json:"input"`
	MinAmount   decimal.Decimal       `json:"minAmount"`
	MaxAmount   decimal.Decimal       `json:"maxAmount"`
	Resources   []ResourceDescriptor  `json:"resources"`
}
