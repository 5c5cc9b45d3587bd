// Package config resolves per-package settings and descriptor files.
//
// Settings live in <dir>/<package>.yaml, one mapping per section:
//
//	database:
//	  folder: ~/acorn-db
//	  savefreq: 2
//
// The global acorn.yaml is layered underneath every package. A package's own
// file takes precedence; the global file only supplies options the package
// file leaves unset.
//
// Descriptor files (<dir>/<package>.json) describe how to summarize objects
// of a package's types and are handed to the tracker's descriptor registry.
package config
