package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "help", err: &flags.Error{Type: flags.ErrHelp}, want: 0},
		{name: "usage", err: &flags.Error{Type: flags.ErrRequired}, want: 2},
		{name: "wrapped usage", err: fmt.Errorf("parse: %w", &flags.Error{Type: flags.ErrUnknownFlag}), want: 2},
		{name: "walk failure", err: errors.New("walk error"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
