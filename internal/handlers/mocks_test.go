package handlers_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/pelusa-v/speakset/internal/oracle"
)

type oracleCall struct {
	kind oracle.Kind
	args []string
}

// fakeOracle returns sequential ids unless generateFn is set.
type fakeOracle struct {
	mu         sync.Mutex
	calls      []oracleCall
	seq        int
	generateFn func(ctx context.Context, kind oracle.Kind, args ...string) (string, error)
}

func (f *fakeOracle) Generate(ctx context.Context, kind oracle.Kind, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, oracleCall{kind: kind, args: append([]string(nil), args...)})
	f.seq++
	n := f.seq
	f.mu.Unlock()

	if f.generateFn != nil {
		return f.generateFn(ctx, kind, args...)
	}
	if kind == oracle.KindToken {
		return fmt.Sprintf("speakset.%x.native", n), nil
	}
	return fmt.Sprintf("msg_%x", n), nil
}

func (f *fakeOracle) Calls() []oracleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]oracleCall(nil), f.calls...)
}
