////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Command nixio-lua runs Lua scripts with the nixio module preloaded.
//
//	nixio-lua [-sandbox] [-v] [-e chunk] [script.lua [args...]]
//
// With -sandbox every file a script opens lives in an in-memory filesystem.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	lua "github.com/yuin/gopher-lua"
	"gitlab.com/elixxir/nixio"
	"gitlab.com/elixxir/nixio/nixlua"
	"gitlab.com/elixxir/nixio/portable"
)

type options struct {
	sandbox bool
	verbose bool
	chunk   string
	script  string
	args    []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fset := flag.NewFlagSet("nixio-lua", flag.ContinueOnError)
	fset.SetOutput(stderr)

	opts := &options{}
	fset.BoolVar(&opts.sandbox, "sandbox", false,
		"open files in an in-memory filesystem instead of the real one")
	fset.BoolVar(&opts.verbose, "v", false, "log handle activity")
	fset.StringVar(&opts.chunk, "e", "", "execute the given Lua chunk")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	rest := fset.Args()
	if len(rest) > 0 {
		opts.script, opts.args = rest[0], rest[1:]
	}
	if opts.chunk == "" && opts.script == "" {
		return nil, errors.New("nothing to run: pass a script or -e chunk")
	}
	return opts, nil
}

func run(opts *options) error {
	if opts.verbose {
		jww.SetStdoutThreshold(jww.LevelTrace)
	}

	storage := portable.UsePosix()
	if opts.sandbox {
		storage = portable.UseMemory()
	}
	fs := nixio.NewFileSystem(storage)

	L := lua.NewState()
	defer L.Close()
	nixlua.Preload(L, fs)

	argTable := L.NewTable()
	for i, a := range opts.args {
		L.RawSetInt(argTable, i+1, lua.LString(a))
	}
	L.SetGlobal("arg", argTable)

	if opts.chunk != "" {
		if err := L.DoString(opts.chunk); err != nil {
			return errors.Wrap(err, "chunk failed")
		}
	}
	if opts.script != "" {
		if err := L.DoFile(opts.script); err != nil {
			return errors.Wrapf(err, "script %s failed", opts.script)
		}
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err = run(opts); err != nil {
		jww.ERROR.Printf("%+v", err)
		os.Exit(1)
	}
}
