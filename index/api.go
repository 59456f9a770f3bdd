package index

// Index is a nearest-neighbor structure over (id, embedding) pairs using the
// Euclidean (L2) distance. It is built once and queried many times.
type Index interface {
	// Build constructs the index. ids and vectors must have the same length and
	// all vectors the same dimension.
	Build(ids []string, vectors [][]float32) error

	// Query returns up to k entries nearest to query as parallel slices of ids
	// and distances, ascending by distance with ties ordered by id. k <= 0
	// returns every entry.
	Query(query []float32, k int) (ids []string, distances []float64, err error)

	// Len returns the number of indexed entries.
	Len() int

	// MarshalBinary serializes the indexed entries.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary restores entries produced by MarshalBinary and rebuilds
	// the structure.
	UnmarshalBinary(data []byte) error
}
