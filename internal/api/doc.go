// Package api implements the HTTP handlers for the matching engine:
// participant registration and profiles, the opinion survey, availability
// submission, and the match lifecycle. Handlers translate between HTTP and
// the service layer; all error responses are sanitized before they reach
// the client.
package api
