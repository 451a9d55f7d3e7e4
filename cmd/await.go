package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/storyapp/internal/output"
)

// response is implemented by every API response body.
type response interface {
	Status() (failed bool, message string)
}

// awaitResult waits for the terminal value of ch and applies the error
// taxonomy: a transport failure or a server-reported failure becomes an
// error carrying the message verbatim.
func awaitResult[T response](cmd *cobra.Command, ch <-chan output.Output[T], doing string) (T, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	announced := false
	result, ok := output.Await(ctx, ch, func() {
		if !announced {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s…\n", doing)
			announced = true
		}
	})

	var resp T
	if !ok {
		if err := ctx.Err(); err != nil {
			return resp, fmt.Errorf("%s: %w", doing, err)
		}
		return resp, errors.New(doing + ": cancelled")
	}

	err := output.Match(result,
		func() error { return errors.New(doing + ": no result") },
		func(data T) error {
			resp = data
			if failed, message := data.Status(); failed {
				return errors.New(message)
			}
			return nil
		},
		func(message string) error { return errors.New(message) },
	)
	return resp, err
}
