// Package repository wraps each remote call in a result channel and applies
// the error policy shared by all screens.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/output"
)

// run executes fn on its own goroutine and returns a channel that yields
// Loading, then exactly one terminal value, then closes.
//
// fn runs detached from ctx cancellation: an in-flight request is allowed to
// finish, but once ctx is done its result is dropped and the channel closes
// without a terminal value.
func run[R any](ctx context.Context, log *zap.Logger, op string, fn func(context.Context) (*R, error)) <-chan output.Output[*R] {
	ch := make(chan output.Output[*R], 2)
	ch <- output.Loading[*R]()

	go func() {
		defer close(ch)

		data, err := fn(context.WithoutCancel(ctx))
		var result output.Output[*R]
		if err != nil {
			result = translate[R](log, op, err)
		} else {
			result = output.Success(data)
		}

		if ctx.Err() != nil {
			log.Debug("dropping result of cancelled call", zap.String("op", op))
			return
		}
		ch <- result
	}()
	return ch
}

// translate maps a failed call onto the result channel. HTTP errors whose
// body parses with the success schema are delivered as Success so callers
// can read the server's error flag and message; everything else becomes
// Error with the raw text.
func translate[R any](log *zap.Logger, op string, err error) output.Output[*R] {
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		log.Error("call failed", zap.String("op", op), zap.Error(err))
		return output.Error[*R](err.Error())
	}

	log.Warn("HTTP exception", zap.String("op", op), zap.Int("status", httpErr.StatusCode))
	parsed, perr := parseErrorBody[R](httpErr.Body)
	if perr != nil {
		log.Error("parsing HTTP error body", zap.String("op", op), zap.Error(perr))
		return output.Error[*R](fmt.Sprintf("error parsing HTTP error response: %v", perr))
	}
	return output.Success(parsed)
}

// parseErrorBody decodes body with the success schema. An empty body or a
// JSON null is a parse failure.
func parseErrorBody[R any](body []byte) (*R, error) {
	if len(body) == 0 {
		return nil, errors.New("empty error body")
	}
	var out *R
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("null error body")
	}
	return out, nil
}
