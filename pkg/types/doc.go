// Package types defines the entity types, the closed scope and role
// enumerations, the error kinds and the Store contract shared by the table
// synchronization engine and its storage backends.
//
// A table has two independent version channels. SchemaETag changes on every
// structural edit (columns or table properties); DataETag changes on every
// row write and is nil until the first one. Clients present the ETag they
// last observed and the server accepts the write only if it still matches.
package types
