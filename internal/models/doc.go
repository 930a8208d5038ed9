// Package models defines the vault's records: user credentials, encrypted
// documents, share records and activity events, together with their storage
// representations (JSON with base64 binary fields).
package models
