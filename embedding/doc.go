// Package embedding holds the identifier to feature vector mapping and the
// batch builder that fills it from an entity source through a face extractor.
//
// A Store is mutable while it is being built and is frozen before it is
// queried. Build never fails because of a single entity: entities without
// exactly one usable face are skipped and reported in the Report.
package embedding
