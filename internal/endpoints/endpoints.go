// Package endpoints is the catalogue of load scenarios the harness can run
// against a ledger service.
package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/torosent/ledgerprobe/internal/ledger"
)

// ErrUnknownScenario is returned by Resolve for names not in the catalogue.
var ErrUnknownScenario = errors.New("unknown scenario")

const (
	AccountByID     = "account-by-id"
	Accounts        = "accounts"
	Health          = "health"
	Status          = "status"
	Transactions    = "transactions"
	TransactionByID = "transaction-by-id"
)

// Target is one resolved scenario: the request repeated by the load batch.
type Target struct {
	Name   string
	Method string
	Path   string
	Body   []byte
}

func (t Target) String() string {
	return fmt.Sprintf("%s %s", t.Method, t.Path)
}

type scenario struct {
	route  func(ledger.Routes) ledger.Route
	lookup bool
}

var catalogue = map[string]scenario{
	AccountByID:     {route: func(r ledger.Routes) ledger.Route { return r.AccountByID }, lookup: true},
	Accounts:        {route: func(r ledger.Routes) ledger.Route { return r.Accounts }},
	Health:          {route: func(r ledger.Routes) ledger.Route { return r.Health }},
	Status:          {route: func(r ledger.Routes) ledger.Route { return r.Status }},
	Transactions:    {route: func(r ledger.Routes) ledger.Route { return r.Transactions }},
	TransactionByID: {route: func(r ledger.Routes) ledger.Route { return r.TransactionByID }, lookup: true},
}

// Names lists the known scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NeedsLookupID reports whether the scenario sends an {"id": ...} body.
func NeedsLookupID(name string) bool {
	return catalogue[normalize(name)].lookup
}

// Resolve maps a scenario name to its request for the given API flavor.
// By-id scenarios carry {"id": lookupID} as the body.
func Resolve(name string, flavor ledger.Flavor, lookupID int64) (Target, error) {
	key := normalize(name)
	sc, ok := catalogue[key]
	if !ok {
		return Target{}, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownScenario, name, strings.Join(Names(), ", "))
	}
	routes, err := flavor.Routes()
	if err != nil {
		return Target{}, err
	}
	route := sc.route(routes)
	target := Target{Name: key, Method: route.Method, Path: route.Path}
	if sc.lookup {
		body, err := json.Marshal(ledger.LookupRequest{ID: lookupID})
		if err != nil {
			return Target{}, fmt.Errorf("encode lookup body: %w", err)
		}
		target.Body = body
	}
	return target, nil
}

func normalize(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(key, "_", "-")
}
