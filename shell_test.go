package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btree-query-bench/bplusindex/index/bplustree"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	tree, err := bplustree.New(4)
	require.NoError(t, err)
	var buf bytes.Buffer
	return newShell(tree, &buf), &buf
}

func TestShellSetGet(t *testing.T) {
	sh, out := newTestShell(t)

	assert.False(t, sh.exec("SET 5 50"))
	assert.Equal(t, "OK\n", out.String())
	out.Reset()

	sh.exec("set 5 51")
	assert.Equal(t, "OK (replaced ref(50))\n", out.String())
	out.Reset()

	sh.exec("GET 5")
	assert.Equal(t, "ref(51)\n", out.String())
	out.Reset()

	sh.exec("GET 6")
	assert.Equal(t, "Key not found.\n", out.String())
}

func TestShellRangeAndCheck(t *testing.T) {
	sh, out := newTestShell(t)
	for _, line := range []string{"SET 1 1", "SET 2 2", "SET 3 3", "SET 4 4", "SET 5 5"} {
		sh.exec(line)
	}
	out.Reset()

	sh.exec("RANGE 2 4")
	assert.Equal(t, "[2] -> ref(2)\n[3] -> ref(3)\n[4] -> ref(4)\n(3 entries)\n", out.String())
	out.Reset()

	sh.exec("CHECK")
	assert.Equal(t, "tree is valid\n", out.String())
	out.Reset()

	sh.exec("HEIGHT")
	assert.Equal(t, "1\n", out.String())
	out.Reset()

	sh.exec("PRINT")
	assert.True(t, strings.HasPrefix(out.String(), "BPlusTree(order=4, height=1)"))
}

func TestShellErrors(t *testing.T) {
	sh, out := newTestShell(t)

	sh.exec("SET 1")
	assert.Contains(t, out.String(), "usage: SET <key> <id>")
	out.Reset()

	sh.exec("GET x")
	assert.Contains(t, out.String(), "usage: GET <key>")
	out.Reset()

	sh.exec("SET 1 -4")
	assert.Contains(t, out.String(), "must not be negative")
	out.Reset()

	sh.exec("DEL 1")
	assert.Contains(t, out.String(), "unsupported mutation")
	out.Reset()

	sh.exec("FROB")
	assert.Contains(t, out.String(), `unknown command "frob"`)
	out.Reset()

	assert.False(t, sh.exec("   "))
	assert.Empty(t, out.String())
	assert.True(t, sh.exec("EXIT"))
}

func TestShellSeed(t *testing.T) {
	sh, out := newTestShell(t)
	sh.exec("SEED 50")
	assert.Contains(t, out.String(), "OK (")
	require.NoError(t, sh.tree.CheckValidity())

	n := 0
	for range sh.tree.Entries() {
		n++
	}
	assert.Positive(t, n)
}
