// Package probe performs the pre-load checks of a ledgerprobe run: a single
// health probe and the creation of a test account. Account creation tries the
// enveloped email encoding first and falls back to the plain string encoding
// once.
package probe
