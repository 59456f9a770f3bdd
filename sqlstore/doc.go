// Package sqlstore persists embeddings in SQLite and can rank them in SQL
// through the vec_l2 function registered by package engine.
package sqlstore
