// Package source enumerates the entities to index: one identifier plus a lazy
// image loader each. The identifier is the file or object name without its
// extension, so "jennie.jpg" indexes as "jennie".
package source
