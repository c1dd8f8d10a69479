package testkit

import (
	"context"
	"errors"
	"testing"

	"goqc/domain/core"
)

func TestGenerator_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewGenerator(42)
	b := NewGenerator(42)

	params, err := a.Parameters(ctx)
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if len(params) != len(paramSpecs) {
		t.Fatalf("expected %d parameters, got %d", len(paramSpecs), len(params))
	}

	for _, param := range params {
		sa, err := a.Series(ctx, param)
		if err != nil {
			t.Fatalf("Series(%s) failed: %v", param, err)
		}
		sb, err := b.Series(ctx, param)
		if err != nil {
			t.Fatalf("Series(%s) failed: %v", param, err)
		}
		va, vb := sa.Values(), sb.Values()
		if len(va) != len(vb) {
			t.Fatalf("%s: value counts differ: %d vs %d", param, len(va), len(vb))
		}
		for i := range va {
			if va[i] != vb[i] {
				t.Errorf("%s: same seed diverged at point %d: %v vs %v", param, i, va[i], vb[i])
			}
		}
	}
}

func TestGenerator_SeriesShape(t *testing.T) {
	g := NewGenerator(7)
	for _, s := range g.AllSeries() {
		if len(s.Points) != 52 {
			t.Errorf("%s: expected 52 weekly points, got %d", s.Parameter, len(s.Points))
		}
		if !s.Chronological() {
			t.Errorf("%s: series is not chronological", s.Parameter)
		}
		if s.Unit == "" {
			t.Errorf("%s: missing unit", s.Parameter)
		}
	}
}

func TestGenerator_UniformityBounds(t *testing.T) {
	g := NewGenerator(7)
	s, err := g.Series(context.Background(), ParamUniformity)
	if err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	for _, v := range s.Values() {
		if v < 1 || v > 4 {
			t.Errorf("uniformity value %v outside [1, 4]", v)
		}
	}
}

func TestGenerator_UnknownParameter(t *testing.T) {
	g := NewGenerator(7)
	_, err := g.Series(context.Background(), "no_such_parameter")
	if !errors.Is(err, core.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}
