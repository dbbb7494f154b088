// Package ledgertest provides an in-process ledger service that emulates
// both server implementations of the ledger API.
package ledgertest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/torosent/ledgerprobe/internal/ledger"
)

// Options shape the behaviour of a fake ledger.
type Options struct {
	// Flavor selects the route table served. Empty means current.
	Flavor ledger.Flavor
	// Accepts is the email encoding create-account accepts. Zero accepts
	// neither.
	Accepts ledger.EmailEncoding
	// HealthStatus is returned by /health. Zero means 200.
	HealthStatus int
	// HealthFailures is reported in the /health body.
	HealthFailures []string
	// LookupFailEvery makes every Nth by-id lookup return 500.
	LookupFailEvery int
	// Latency is added to every request.
	Latency time.Duration
	// Service and Version are reported by /health and /status.
	Service string
	Version string
}

// Ledger is an http.Handler holding an in-memory account book.
type Ledger struct {
	opts   Options
	router chi.Router

	mu       sync.Mutex
	counts   map[string]int
	lookups  int
	accounts []ledger.Account
	txs      []ledger.Transaction
	nextID   int64
}

// New builds a Ledger seeded with two accounts and one transaction.
func New(opts Options) (*Ledger, error) {
	if opts.Flavor == "" {
		opts.Flavor = ledger.FlavorCurrent
	}
	if opts.HealthStatus == 0 {
		opts.HealthStatus = http.StatusOK
	}
	if opts.Service == "" {
		opts.Service = "ledgerstub"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}
	routes, err := opts.Flavor.Routes()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	l := &Ledger{
		opts:   opts,
		counts: make(map[string]int),
		accounts: []ledger.Account{
			{ID: 1, Username: "alice", Email: ledger.FlexString{Value: "alice@example.com", Valid: true}, Balance: 100, CreatedAt: &now},
			{ID: 2, Username: "bob", Email: ledger.FlexString{Value: "bob@example.com", Valid: true}, Balance: 50, CreatedAt: &now},
		},
		txs: []ledger.Transaction{
			{ID: 1, FromAccount: 1, ToAccount: 2, Amount: 10, CreatedAt: &now},
		},
		nextID: 3,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(l.count)
	if opts.Latency > 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				time.Sleep(opts.Latency)
				next.ServeHTTP(w, req)
			})
		})
	}
	r.Method(routes.Health.Method, routes.Health.Path, http.HandlerFunc(l.health))
	r.Method(routes.Status.Method, routes.Status.Path, http.HandlerFunc(l.status))
	r.Method(routes.CreateAccount.Method, routes.CreateAccount.Path, http.HandlerFunc(l.createAccount))
	r.Method(routes.AccountByID.Method, routes.AccountByID.Path, http.HandlerFunc(l.accountByID))
	r.Method(routes.Accounts.Method, routes.Accounts.Path, http.HandlerFunc(l.listAccounts))
	r.Method(routes.Transactions.Method, routes.Transactions.Path, http.HandlerFunc(l.listTransactions))
	r.Method(routes.TransactionByID.Method, routes.TransactionByID.Path, http.HandlerFunc(l.transactionByID))
	l.router = r
	return l, nil
}

func (l *Ledger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.router.ServeHTTP(w, r)
}

// Server is a Ledger listening on a loopback httptest server.
type Server struct {
	*Ledger
	*httptest.Server
}

// NewServer starts a Ledger on a loopback port. Callers must Close it.
func NewServer(opts Options) (*Server, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &Server{Ledger: l, Server: httptest.NewServer(l)}, nil
}

// Count returns how many requests hit method and path.
func (l *Ledger) Count(method, path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[method+" "+path]
}

// Total returns the number of requests served.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.counts {
		n += c
	}
	return n
}

// Accounts returns a copy of the account book sorted by id.
func (l *Ledger) Accounts() []ledger.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]ledger.Account(nil), l.accounts...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.mu.Lock()
		l.counts[r.Method+" "+r.URL.Path]++
		l.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (l *Ledger) health(w http.ResponseWriter, _ *http.Request) {
	failures := l.opts.HealthFailures
	if failures == nil {
		failures = []string{}
	}
	writeJSON(w, l.opts.HealthStatus, ledger.Health{
		Service:  l.opts.Service,
		Version:  l.opts.Version,
		Failures: failures,
	})
}

func (l *Ledger) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ledger.Status{
		Service: l.opts.Service,
		Version: l.opts.Version,
		Message: "ok",
	})
}

func (l *Ledger) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string          `json:"username"`
		Email    json.RawMessage `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return
	}

	raw := bytes.TrimSpace(req.Email)
	var got ledger.EmailEncoding
	switch {
	case len(raw) > 0 && raw[0] == '"':
		got = ledger.EncodingPlain
	case len(raw) > 0 && raw[0] == '{':
		got = ledger.EncodingEnvelope
	}
	if got == 0 || got != l.opts.Accepts {
		http.Error(w, fmt.Sprintf("email: unexpected %s encoding", got), http.StatusBadRequest)
		return
	}

	var email ledger.FlexString
	if err := json.Unmarshal(raw, &email); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	for _, a := range l.accounts {
		if a.Username == req.Username {
			l.mu.Unlock()
			http.Error(w, "username already exists", http.StatusConflict)
			return
		}
	}
	now := time.Now().UTC()
	account := ledger.Account{ID: l.nextID, Username: req.Username, Email: email, CreatedAt: &now}
	l.nextID++
	l.accounts = append(l.accounts, account)
	l.mu.Unlock()

	writeJSON(w, http.StatusOK, l.render(account))
}

func (l *Ledger) accountByID(w http.ResponseWriter, r *http.Request) {
	id, ok := l.lookupID(w, r)
	if !ok {
		return
	}
	l.mu.Lock()
	var found *ledger.Account
	for i := range l.accounts {
		if l.accounts[i].ID == id {
			a := l.accounts[i]
			found = &a
			break
		}
	}
	l.mu.Unlock()
	if found == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, l.render(*found))
}

func (l *Ledger) listAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts := l.Accounts()
	out := make([]interface{}, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, l.render(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (l *Ledger) listTransactions(w http.ResponseWriter, _ *http.Request) {
	l.mu.Lock()
	txs := append([]ledger.Transaction(nil), l.txs...)
	l.mu.Unlock()
	writeJSON(w, http.StatusOK, txs)
}

func (l *Ledger) transactionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := l.lookupID(w, r)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range l.txs {
		if tx.ID == id {
			writeJSON(w, http.StatusOK, tx)
			return
		}
	}
	http.Error(w, "transaction not found", http.StatusNotFound)
}

// lookupID decodes {"id": n} and applies LookupFailEvery.
func (l *Ledger) lookupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	l.mu.Lock()
	l.lookups++
	n := l.lookups
	l.mu.Unlock()
	if l.opts.LookupFailEvery > 0 && n%l.opts.LookupFailEvery == 0 {
		http.Error(w, "injected lookup failure", http.StatusInternalServerError)
		return 0, false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	var req ledger.LookupRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return req.ID, true
}

// render emits an account with email in the encoding this server accepts.
func (l *Ledger) render(a ledger.Account) interface{} {
	if l.opts.Accepts != ledger.EncodingEnvelope {
		return a
	}
	return struct {
		ID        int64             `json:"id"`
		Username  string            `json:"username"`
		Email     ledger.NullString `json:"email"`
		Balance   int64             `json:"balance"`
		CreatedAt *time.Time        `json:"created_at,omitempty"`
	}{a.ID, a.Username, ledger.NullString{String: a.Email.Value, Valid: a.Email.Valid}, a.Balance, a.CreatedAt}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
