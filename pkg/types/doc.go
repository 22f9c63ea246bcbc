// Package types defines the Library interface, the Book and Member entity
// types, the Config accepted by the shelf tooling, and the standard errors
// shared by the catalogue, snapshot, and CLI layers.
package types
