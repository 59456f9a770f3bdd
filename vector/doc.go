// Package vector defines the numeric primitives shared by this module:
//   - L2 and cosine distance between embeddings
//   - the Metric selector used by stores, indexes and rankers
//   - embedding encoding as a little-endian float32 BLOB
//   - DimensionMismatchError reported by every comparison or insert
package vector
