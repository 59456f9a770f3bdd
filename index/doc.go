// Package index defines the nearest-neighbor index abstraction used by the
// ranking engine to retrieve candidates, and selects an implementation: an
// exact brute-force scan, a vantage-point tree or a cover tree.
package index
