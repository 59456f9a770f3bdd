// Package remote implements face.Detector against an HTTP face service that
// locates faces and computes their embeddings in one call, in the shape of the
// Python face_recognition wrappers commonly deployed next to Go services:
//
//	POST {endpoint}/faces   (body: PNG image)
//	200 [{"loc": [top, right, bottom, left], "vec": [0.1, ...]}, ...]
//
// Calls are rate limited and guarded by a circuit breaker; once the breaker
// opens every call fails with face.ErrUnavailable so index builds stop early
// instead of recording every remaining image as a failure.
package remote
