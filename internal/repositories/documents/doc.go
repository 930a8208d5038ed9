// Package documents persists each owner's encrypted documents as one JSON
// array under "files/<identity>".
//
// Every mutation is a read-modify-write of the whole collection. Callers
// serialize access per owner (storage.Locker on Key(owner)) and run the
// sequence inside storage.Store.Atomic so concurrent uploads and deletes on
// the same collection never lose an update.
package documents
