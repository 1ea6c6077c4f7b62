// Package mongowrap binds the migration engine's document model
// (map[string]interface{} documents, see internal/driver.Document) to
// go.mongodb.org/mongo-driver, through an mgo-shaped call chain (Dial, DB, C,
// Find, Bulk) that mirrors the one internal/driver/adapter.go drives.
//
// It exposes exactly the verbs internal/driver.Database needs: listing and
// creating collections with a validator, index create/list/drop, batched
// cursor reads, bulk insert, id-keyed replace, bulk delete, single-document
// find, and change-stream watch. It does not reproduce the rest of the mgo
// API — query projection, aggregation, GridFS, session copy/mode semantics —
// because the migration core never exercises them.
package mongowrap
