package probe

import (
	"context"
	"strings"

	"github.com/torosent/ledgerprobe/internal/extractor"
	"github.com/torosent/ledgerprobe/internal/ledger"
)

var encodingOrder = [...]ledger.EmailEncoding{ledger.EncodingEnvelope, ledger.EncodingPlain}

// EncodingOrder returns a copy of the order in which email encodings are tried.
func EncodingOrder() []ledger.EmailEncoding {
	return append([]ledger.EmailEncoding(nil), encodingOrder[:]...)
}

// AccountIDPath locates the account id in a creation response.
const AccountIDPath = "id"

// AccountCreator issues one create-account request.
type AccountCreator interface {
	CreateAccount(ctx context.Context, username, email string, enc ledger.EmailEncoding) (ledger.Response, error)
}

// ProvisionResult describes the accepted creation request.
type ProvisionResult struct {
	Username   string
	Email      string
	Encoding   ledger.EmailEncoding
	Attempts   int
	StatusCode int
	Body       []byte
	// AccountID is valid when HasAccountID is set.
	AccountID    int64
	HasAccountID bool
}

type Provisioner struct {
	client AccountCreator
}

func NewProvisioner(client AccountCreator) *Provisioner {
	return &Provisioner{client: client}
}

// CreateAccount tries each encoding in EncodingOrder and stops at the first
// 200. It never sends more than two requests. A cancelled ctx
// stops the fallback.
func (p *Provisioner) CreateAccount(ctx context.Context, username, email string) (ProvisionResult, error) {
	failure := &AccountCreationFailedError{Username: username, Email: email}

	for i, enc := range encodingOrder {
		resp, err := p.client.CreateAccount(ctx, username, email, enc)
		if err == nil && resp.OK() {
			result := ProvisionResult{
				Username:   username,
				Email:      email,
				Encoding:   enc,
				Attempts:   i + 1,
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
			}
			result.AccountID, result.HasAccountID = extractor.Int64(resp.Body, AccountIDPath)
			return result, nil
		}

		failure.Attempts = append(failure.Attempts, Attempt{
			Encoding:   enc,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(resp.Body)),
			Err:        err,
		})
		if ctx.Err() != nil {
			break
		}
	}
	return ProvisionResult{}, failure
}
