package llm

import (
	"context"
	"time"
)

// WithTiming decorates a Generator so every call reports its latency to
// observe. A nil observe returns the generator unchanged.
func WithTiming(gen Generator, observe func(time.Duration)) Generator {
	if observe == nil {
		return gen
	}
	return &timedGenerator{inner: gen, observe: observe}
}

type timedGenerator struct {
	inner   Generator
	observe func(time.Duration)
}

func (t *timedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := t.inner.Generate(ctx, req)
	t.observe(time.Since(start))
	return out, err
}

func (t *timedGenerator) Model() string { return t.inner.Model() }
