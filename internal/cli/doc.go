// Package cli is the interactive front end of encodex.
//
// App wires configuration, the storage backend and the vault services, then
// runs a line-oriented REPL over stdin. At most one identity is logged in at
// a time; its key lives in a session.Manager and is dropped on logout.
//
// Commands available without a session:
//
//	register, login, keygen, redeem, redeemsealed, revoke, help, exit
//
// Commands that need a session:
//
//	upload, scan, list, download, delete, share, sharesealed, shares,
//	activity, profile, rename, rekey, export, clear, logout
package cli
