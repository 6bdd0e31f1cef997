// Package httputil provides shared JSON request/response helpers for the
// onboarding API handlers.
//
// Handlers use these instead of writing raw http.ResponseWriter calls so
// every endpoint returns the same envelope and error shape.
package httputil
