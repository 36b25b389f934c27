package main

import (
	"strings"
	"testing"
	"time"
)

func TestRenderQR(t *testing.T) {
	out := renderQR("2@abcdef,ghijkl,mnopqr")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("got %d lines, want a full QR", len(lines))
	}
	width := len([]rune(lines[0]))
	for i, l := range lines {
		if n := len([]rune(l)); n != width {
			t.Fatalf("line %d has %d runes, want %d", i, n, width)
		}
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Error("no blocks drawn")
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(0); got != "-" {
		t.Errorf("formatTime(0) = %q, want -", got)
	}
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	if got := formatTime(ts.UnixMilli()); got != "2024-03-09 14:05" {
		t.Errorf("formatTime = %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"status"}, {"send"}, {"contacts"}, {"contact"}, {"groups"}, {"sync"},
		{"messages"}, {"search"}, {"templates", "list"}, {"templates", "add"},
		{"templates", "rm"}, {"config", "list"}, {"config", "set"}, {"pair"}, {"watch"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
	if root.PersistentFlags().Lookup("session") == nil || root.PersistentFlags().Lookup("json") == nil {
		t.Error("missing global flags")
	}
}

func TestContactRequiresAField(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"contact", "5511999998888"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "nothing to update") {
		t.Fatalf("err = %v, want nothing to update", err)
	}
}
