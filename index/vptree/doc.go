// Package vptree provides an exact Euclidean kNN index backed by a
// vantage-point tree. Distances are computed in float64, so results match the
// brute-force scan including tie order.
package vptree
