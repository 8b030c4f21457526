// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/alecthomas/kong"
)

// CLI is askama-gen's top-level command set: a single default command that
// scans a package directory for annotated context types, grounded in
// ardnew/aenv's cli.CLI (a Kong root struct embedding subcommands, run via
// kong.Parse rather than the stdlib flag package).
type CLI struct {
	Dir   string `help:"Package directory to scan for askama:template annotations." default:"." type:"existingdir"`
	Print string `help:"Override every annotation's print= setting (none, ast, code, all)." enum:"none,ast,code,all," default:""`
}

// Run executes the generate pass. Kong calls this because CLI is the
// parsed command target with no explicit subcommand selected.
func (c *CLI) Run() error {
	return runGenerate(generateOptions{
		Dir:          c.Dir,
		Diagnostics:  os.Stderr,
		PrintDefault: c.Print,
	})
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("askama-gen"),
		kong.Description("Generates Go render methods from Askama-style templates."),
		kong.UsageOnError(),
	)
	ktx.FatalIfErrorf(ktx.Run())
}
