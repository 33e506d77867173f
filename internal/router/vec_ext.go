//go:build sqlite_vec && cgo

package router

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Register the sqlite-vec extension as auto-loadable for the
	// mattn/go-sqlite3 driver. Builds without this tag still compile and
	// run: EnableVectorIndex's CREATE VIRTUAL TABLE probe simply fails and
	// the session vector index degrades to disabled.
	vec.Auto()
}
