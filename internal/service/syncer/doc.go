// Package syncer pulls campaigns and daily metrics from connected platforms
// into the relational store.
//
// One sync covers the lookback window ending today. Runs are guarded by a
// per-connection distributed lock so server and worker replicas never pull
// the same account at once.
package syncer
