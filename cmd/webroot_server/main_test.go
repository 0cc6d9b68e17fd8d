package main

import (
	"path/filepath"
	"testing"
)

func TestRunConfigErrors(t *testing.T) {
	t.Setenv("WEBROOT_PATH", "")
	t.Setenv("WEBROOT_IP", "")
	t.Setenv("WEBROOT_PORT", "")

	testCases := []struct {
		name string
		args []string
		code int
	}{
		{name: "help", args: []string{"-h"}, code: 0},
		{name: "no root", args: nil, code: 1},
		{name: "unknown flag", args: []string{"-nope"}, code: 1},
		{name: "missing root", args: []string{"-path", filepath.Join(t.TempDir(), "nope")}, code: 1},
		{name: "bad level", args: []string{"-path", t.TempDir(), "-level", "loud"}, code: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.args); got != tc.code {
				t.Errorf("got %d, want %d", got, tc.code)
			}
		})
	}
}
