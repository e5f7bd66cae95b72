package netwatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"shoplist/internal/logging"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func TestProbeReportsInitialStateOnce(t *testing.T) {
	p := &fakePinger{}
	var got []bool
	w := New(p, logging.Setup("error"), 0, func(online bool) { got = append(got, online) })

	ctx := context.Background()
	w.probe(ctx)
	w.probe(ctx)

	assert.Equal(t, []bool{true}, got)
}

func TestProbeReportsTransitions(t *testing.T) {
	p := &fakePinger{}
	var got []bool
	w := New(p, logging.Setup("error"), 0, func(online bool) { got = append(got, online) })

	ctx := context.Background()
	w.probe(ctx)

	p.err = errors.New("connection refused")
	w.probe(ctx)
	w.probe(ctx)

	p.err = nil
	w.probe(ctx)

	assert.Equal(t, []bool{true, false, true}, got)
}

func TestProbeReportsOfflineFirst(t *testing.T) {
	p := &fakePinger{err: errors.New("down")}
	var got []bool
	w := New(p, logging.Setup("error"), 0, func(online bool) { got = append(got, online) })

	w.probe(context.Background())

	assert.Equal(t, []bool{false}, got)
}
