// Package harness drives one ledgerprobe run through its phases: a health
// probe, test account provisioning, the load batch and reporting. A failed
// health probe or provisioning aborts the run before any load request is
// sent.
package harness
