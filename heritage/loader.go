// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heritage implements the resolver stage (spec.md §4.3): given an
// entry template, it transitively loads every template reachable via
// extends/include/import, and produces a Heritage chain plus a block map
// for the generator to walk.
package heritage

import (
	"os"
	"path"
	"path/filepath"
)

// Loader reads a template's source given its canonical path. Multiple
// configured directories (config.Config.Dirs) are tried in order by
// DirsLoader.
type Loader interface {
	Read(p string) (string, error)
}

// DirsLoader reads templates from the first of a list of directories that
// contains the requested path, the Go analogue of the teacher's DirReader
// generalized to several search roots (askama.yaml's `dirs` list).
type DirsLoader []string

func (d DirsLoader) Read(p string) (string, error) {
	clean := path.Clean("/" + p)[1:]
	for _, dir := range d {
		full := filepath.Join(dir, filepath.FromSlash(clean))
		b, err := os.ReadFile(full)
		if err == nil {
			return string(b), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	return "", &NotFoundError{Path: p}
}

// MapLoader reads templates from an in-memory map, keyed by canonical
// path, used by tests and by hosts that embed templates with go:embed.
type MapLoader map[string]string

func (m MapLoader) Read(p string) (string, error) {
	clean := path.Clean("/" + p)
	if src, ok := m[clean[1:]]; ok {
		return src, nil
	}
	if src, ok := m[p]; ok {
		return src, nil
	}
	return "", &NotFoundError{Path: p}
}

// resolveRelative joins a path referenced from within parent (an
// extends/include/import target, which may be relative) into a canonical,
// slash-separated path relative to the template root, with no leading "/".
func resolveRelative(parent, ref string) string {
	if len(ref) > 0 && ref[0] == '/' {
		return path.Clean(ref)[1:]
	}
	dir := path.Dir("/" + parent)
	return path.Clean(path.Join(dir, ref))[1:]
}
