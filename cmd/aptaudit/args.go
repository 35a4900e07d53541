package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// idArgs requires exactly n positional arguments, each a positive integer id.
func idArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		for _, a := range args {
			if _, err := parseID(a); err != nil {
				return err
			}
		}
		return nil
	}
}

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return v, nil
}

// mustID parses an argument already checked by idArgs.
func mustID(s string) int64 {
	v, _ := parseID(s)
	return v
}
