package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// ctxCheckInterval is how many lines are read between cancellation checks.
const ctxCheckInterval = 512

// ForEachLine calls fn with every non-blank line of r and its 1-based line
// number. Lines of any length are supported. Reading stops early when fn
// returns an error or ctx is cancelled.
func ForEachLine(ctx context.Context, r io.Reader, fn func(lineNo int, line []byte) error) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if lineNo%ctxCheckInterval == 0 {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
			}
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				if fnErr := fn(lineNo, trimmed); fnErr != nil {
					return fnErr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
