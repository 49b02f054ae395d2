////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-sandbox", "-v", "script.lua", "a", "b"},
		io.Discard)
	require.NoError(t, err)
	require.True(t, opts.sandbox)
	require.True(t, opts.verbose)
	require.Equal(t, "script.lua", opts.script)
	require.Equal(t, []string{"a", "b"}, opts.args)

	_, err = parseFlags(nil, io.Discard)
	require.Error(t, err)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	require.Error(t, err)
}

// Tests that a script run in the sandbox never touches the real filesystem.
func TestRun_Sandbox(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	err := run(&options{
		sandbox: true,
		chunk: `
			local nixio = require("nixio")
			local f = assert(nixio.open(arg[1], "w"))
			assert(f:write("hidden") == 6)
			f:close()
		`,
		args: []string{target},
	})
	require.NoError(t, err)

	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err))
}

// Tests that scripts run against the real filesystem by default and that
// script errors are reported.
func TestRun_Script(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	script := filepath.Join(dir, "write.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
		local nixio = require("nixio")
		local f = assert(nixio.open(arg[1], "w"))
		f:write("visible")
		f:close()
	`), 0600))

	require.NoError(t, run(&options{script: script, args: []string{target}}))
	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "visible", string(contents))

	err = run(&options{chunk: `error("boom")`})
	require.ErrorContains(t, err, "boom")
}
