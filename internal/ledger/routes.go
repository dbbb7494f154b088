package ledger

import (
	"fmt"
	"net/http"
	"strings"
)

// Flavor names one of the two server implementations of the ledger API.
// They share a logical contract but differ in paths and verbs.
type Flavor string

const (
	FlavorCurrent Flavor = "current"
	FlavorLegacy  Flavor = "legacy"
)

// Route is a method/path pair on the ledger service.
type Route struct {
	Method string
	Path   string
}

// Routes is the route table for one flavor.
type Routes struct {
	Health          Route
	Status          Route
	CreateAccount   Route
	AccountByID     Route
	Accounts        Route
	Transactions    Route
	TransactionByID Route
}

var routeTables = map[Flavor]Routes{
	FlavorCurrent: {
		Health:          Route{http.MethodGet, "/health"},
		Status:          Route{http.MethodGet, "/status"},
		CreateAccount:   Route{http.MethodPut, "/create-account"},
		AccountByID:     Route{http.MethodPost, "/account-by-id"},
		Accounts:        Route{http.MethodGet, "/accounts"},
		Transactions:    Route{http.MethodGet, "/transactions"},
		TransactionByID: Route{http.MethodPost, "/transaction-by-id"},
	},
	FlavorLegacy: {
		Health:          Route{http.MethodGet, "/health"},
		Status:          Route{http.MethodGet, "/status"},
		CreateAccount:   Route{http.MethodPost, "/create_account"},
		AccountByID:     Route{http.MethodGet, "/account_by_id"},
		Accounts:        Route{http.MethodGet, "/accounts"},
		Transactions:    Route{http.MethodGet, "/transactions"},
		TransactionByID: Route{http.MethodGet, "/transaction_by_id"},
	},
}

// ParseFlavor normalizes a flavor name. Empty selects FlavorCurrent.
func ParseFlavor(s string) (Flavor, error) {
	f := Flavor(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FlavorCurrent, nil
	}
	if _, ok := routeTables[f]; !ok {
		return "", fmt.Errorf("unknown api flavor %q (expected %q or %q)", s, FlavorCurrent, FlavorLegacy)
	}
	return f, nil
}

// Routes returns the route table of the flavor.
func (f Flavor) Routes() (Routes, error) {
	if f == "" {
		f = FlavorCurrent
	}
	r, ok := routeTables[f]
	if !ok {
		return Routes{}, fmt.Errorf("unknown api flavor %q", string(f))
	}
	return r, nil
}
