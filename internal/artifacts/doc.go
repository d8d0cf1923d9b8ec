// Package artifacts keeps a SQLite ledger of every video a provider
// produced: which task made it, where the provider hosts it, and where it
// landed locally. Generation costs real money, so the ledger is what lets
// a crashed run re-download instead of regenerate.
package artifacts
