// Package analytics folds heterogeneous platform metric rows into one
// summary shape: totals with derived ratios, a per-platform breakdown, a
// zero-filled daily series and the top campaigns by spend. Aggregate and
// Compare are pure; Service adds loading and caching.
package analytics
