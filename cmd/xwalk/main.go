package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/xwalk/internal/cmd"
)

func main() {
	p, err := cmd.NewParser()
	if err != nil {
		panic(err)
	}

	_, err = p.Parse()
	exit(err)
}

// exitCode returns 0 on success or if help was requested, 2 on usage errors, and 1 if any input failed.
func exitCode(err error) int {
	var flagsErr *flags.Error
	switch {
	case err == nil, flags.WroteHelp(err):
		return 0
	case errors.As(err, &flagsErr):
		return 2
	default:
		return 1
	}
}
