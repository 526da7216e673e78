// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter calls
// so that JSON formatting, the error envelope and error logging stay uniform
// across the dashboard API.
package httputil
