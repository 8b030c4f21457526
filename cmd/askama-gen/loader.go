// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "github.com/askamago/askama/heritage"

// inlineEntryPathPrefix prefixes the synthetic canonical path an inline
// (`source=`) template is loaded under, distinct from any real on-disk template path
// so it can never collide with an extends/include reference.
const inlineEntryPathPrefix = "__inline__/"

// inlineLoader serves one inline template source under a synthetic entry
// path, and defers every other path (an extends/include target) to a
// filesystem-backed loader, so an inline template can still extend or
// include a template that lives under the configured search roots.
type inlineLoader struct {
	entry    string
	source   string
	fallback heritage.Loader
}

func (l inlineLoader) Read(p string) (string, error) {
	if p == l.entry {
		return l.source, nil
	}
	if l.fallback != nil {
		return l.fallback.Read(p)
	}
	return "", &heritage.NotFoundError{Path: p}
}
