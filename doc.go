// Package main provides the entry point for the runtime-config service.
// It serves a JSON API over fiber that lets authenticated users create,
// edit and delete scoped configuration settings. Every edit and delete is
// recorded in an append-only history together with the identity that caused
// it. Identities authenticate with short-lived access tokens that are
// rotated through single-use refresh tokens.
package main
