package index

import (
	"fmt"
	"strings"

	"github.com/viant/lookalike/index/bruteforce"
	"github.com/viant/lookalike/index/cover"
	"github.com/viant/lookalike/index/vptree"
)

// Kind names an index implementation.
type Kind string

const (
	KindAuto   Kind = "auto"
	KindBrute  Kind = "brute"
	KindVPTree Kind = "vptree"
	KindCover  Kind = "cover"
)

const (
	autoTreeMinDocs            = 4000
	autoTreeMinDim             = 64
	autoTreeMinDensity float64 = 16
)

// ParseKind resolves an index name; "" means auto.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindBrute, KindVPTree, KindCover:
		return k, nil
	}
	return "", fmt.Errorf("index: unknown kind %q", name)
}

// Resolve picks a concrete kind for n entries of dimension dim. Auto uses a
// tree only for large collections with enough entries per dimension.
func (k Kind) Resolve(n, dim int) Kind {
	if k != KindAuto && k != "" {
		return k
	}
	if n >= autoTreeMinDocs && dim >= autoTreeMinDim && float64(n)/float64(dim) >= autoTreeMinDensity {
		return KindVPTree
	}
	return KindBrute
}

// New returns an empty index of the given concrete kind.
func New(kind Kind) (Index, error) {
	switch kind {
	case KindBrute:
		return &bruteforce.Index{}, nil
	case KindVPTree:
		return &vptree.Index{}, nil
	case KindCover:
		return cover.New(), nil
	}
	return nil, fmt.Errorf("index: cannot instantiate kind %q", kind)
}

// Build resolves kind for the given data, then builds and returns the index.
func Build(kind Kind, ids []string, vectors [][]float32) (Index, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	idx, err := New(kind.Resolve(len(ids), dim))
	if err != nil {
		return nil, err
	}
	if err := idx.Build(ids, vectors); err != nil {
		return nil, err
	}
	return idx, nil
}
