package ddf

import "github.com/dresden-mesh/meshgwd/atom"

func newTestCache() *atom.Cache { return atom.New() }
