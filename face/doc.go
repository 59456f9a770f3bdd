// Package face defines the contract between the embedding index and the
// external face pipeline: a Detector locating face regions in an image and an
// Embedder turning one region into a feature vector. Extractor combines the
// two and turns "no face" and "more than one face" into distinguished errors
// that index builders treat as recoverable per-image outcomes.
//
// No detection algorithm or embedding model lives here; see the remote
// subpackage for a client of an HTTP face service.
package face
