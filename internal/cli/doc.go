// Package cli implements the interactive terminal client. It signs the owner
// in and drives the vault state manager directly against the configured
// database and object storage.
package cli
