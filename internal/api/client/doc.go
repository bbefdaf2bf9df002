// Package client is a typed Go client for the sandbox API with
// retrying transport and outbound rate limiting.
package client
