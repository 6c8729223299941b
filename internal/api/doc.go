// Package api exposes the store's read operations as a JSON HTTP API.
package api
