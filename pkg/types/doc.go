// Package types defines the Store interface, grid entity types, the query
// specification (filters, sort, search, cursor), view configuration, and
// standard errors for the Gridloom storage system.
package types
