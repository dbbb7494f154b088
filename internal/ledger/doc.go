// Package ledger is the client side of the ledger service HTTP contract.
//
// Two server implementations expose the same logical API with different
// paths and verbs (see Flavor) and disagree on how the optional email field
// of an account is serialized (see EmailEncoding). Client hides the route
// differences; callers choose the encoding explicitly.
//
// Only status 200 is treated as success. Other statuses surface as
// *HTTPError carrying the body verbatim, and failures below HTTP surface as
// *TransportError.
package ledger
