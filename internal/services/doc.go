// Package services implements the vault use cases on top of the crypto core,
// the repositories and the storage port.
//
//   - AuthService:     register, login, display-name update and re-keying.
//   - VaultService:    upload, scan-save, download, list and delete documents.
//   - ShareService:    issue, redeem, revoke and list share tokens.
//   - ActivityService: read the activity log.
//   - SettingsService: metadata export and wiping all data.
//
// Document operations take an explicit *session.Session. Every state change
// on a user record, a document collection or a share token runs under the
// per-key storage.Locker and inside storage.Store.Atomic, so two operations
// on the same key are linearizable. Key derivation and sealing run outside
// those sections wherever the operation allows it.
//
// Activity is recorded after the operation commits. A failure to record is
// logged and never fails the operation itself.
package services
