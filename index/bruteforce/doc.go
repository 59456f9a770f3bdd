// Package bruteforce provides an exact Euclidean kNN index that scans every
// entry. It is the baseline other indexes are checked against.
package bruteforce
