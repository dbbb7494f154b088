package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the body returned by GET /status.
type Status struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Message string `json:"message"`
}

// Health is the body returned by GET /health. Failures lists the dependency
// checks that did not pass (for example a database ping).
type Health struct {
	Service  string   `json:"service"`
	Version  string   `json:"version"`
	Message  string   `json:"message,omitempty"`
	Failures []string `json:"failures"`
}

// Account mirrors the ledger's account record.
type Account struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     FlexString `json:"email"`
	Balance   int64      `json:"balance"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Transaction mirrors the ledger's transaction record.
type Transaction struct {
	ID          int64      `json:"id"`
	FromAccount int64      `json:"from_account"`
	ToAccount   int64      `json:"to_account"`
	Amount      int64      `json:"amount"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// LookupRequest is the body of the by-id endpoints.
type LookupRequest struct {
	ID int64 `json:"id"`
}

// FlexString decodes a string field that one server implementation emits
// as a bare string and the other as a {"String","Valid"} envelope.
type FlexString struct {
	Value string
	Valid bool
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = FlexString{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, Valid: true}
		return nil
	}
	var ns NullString
	if err := json.Unmarshal(trimmed, &ns); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString{Value: ns.String, Valid: ns.Valid}
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f FlexString) String() string {
	return f.Value
}

// DecodeHealth decodes a /health body.
func DecodeHealth(body []byte) (Health, error) {
	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return Health{}, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

// DecodeStatus decodes a /status body.
func DecodeStatus(body []byte) (Status, error) {
	var s Status
	if err := json.Unmarshal(body, &s); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return s, nil
}

// DecodeAccount decodes a single account body.
func DecodeAccount(body []byte) (Account, error) {
	var a Account
	if err := json.Unmarshal(body, &a); err != nil {
		return Account{}, fmt.Errorf("decode account: %w", err)
	}
	return a, nil
}

// DecodeAccounts decodes the /accounts listing.
func DecodeAccounts(body []byte) ([]Account, error) {
	var accounts []Account
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

// DecodeTransactions decodes the /transactions listing.
func DecodeTransactions(body []byte) ([]Transaction, error) {
	var txs []Transaction
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// DecodeTransaction decodes a single transaction body.
func DecodeTransaction(body []byte) (Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}
