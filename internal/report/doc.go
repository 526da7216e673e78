// Package report renders workspace performance reports (HTML, CSV, XLSX,
// PDF), archives them and delivers them by download or e-mail.
package report
