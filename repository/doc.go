// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations over entities with single or composite primary keys,
// including filtered search, partial updates, pagination, transactions, and
// upsert support.
package repository
