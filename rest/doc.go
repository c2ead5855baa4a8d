// Package rest turns entity models into REST endpoints. Mount inspects an
// entity's column and primary key metadata and registers list, fetch, create,
// update, patch, and delete handlers on a standard ServeMux, so a model gains
// a full CRUD API with one call.
package rest
