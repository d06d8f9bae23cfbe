// Package server holds the HTTP server configuration.
//
// The serve command starts a Fiber app from this configuration: listen port, the API
// key enforced by the auth middleware and the body limit applied to uploaded
// extraction documents.
package server
