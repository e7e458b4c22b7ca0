// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"math/rand"
	"time"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/google/go-cmp/cmp"
)

// outputs collects the values of the output ports of the top block.
type outputs struct {
	hdl.NullProbe
	depth int
	vals  map[string]bits.Vec
}

func (p *outputs) VisitStartScope(string, *hdl.Block) { p.depth++ }
func (p *outputs) VisitEndScope(string, *hdl.Block)   { p.depth-- }

func (p *outputs) VisitAtom(name string, a hdl.Atom) {
	if p.depth == 1 && a.Kind() == hdl.OutputParameter {
		p.vals[name] = a.Value()
	}
}

func topOutputs(b *hdl.Block) map[string]bits.Vec {
	p := &outputs{vals: make(map[string]bits.Vec)}
	b.Accept("top", p)
	return p.vals
}

func settle(b *hdl.Block) error {
	for i := 0; i < hdl.DefaultMaxPasses; i++ {
		b.UpdateAll()
		if !b.HasChanged() {
			return nil
		}
	}
	return &hdl.ConvergenceError{}
}

// Compare takes two combinational circuits with the same ports and compares
// their outputs given the same inputs. drive sets the inputs of a circuit
// from r; it is called iter times on each circuit with generators seeded
// identically.
//
func Compare[T hdl.Logic](t TB, iter int, ref, dut T, drive func(r *rand.Rand, x T)) {
	t.Helper()

	b1, b2 := Check(t, ref), Check(t, dut)
	if b1 == nil || b2 == nil {
		return
	}
	seed := time.Now().UnixNano()
	r1, r2 := rand.New(rand.NewSource(seed)), rand.New(rand.NewSource(seed))

	for i := 0; i < iter; i++ {
		drive(r1, ref)
		drive(r2, dut)
		if err := settle(b1); err != nil {
			t.Fatalf("reference: %v", err)
			return
		}
		if err := settle(b2); err != nil {
			t.Fatalf("device under test: %v", err)
			return
		}
		o1, o2 := topOutputs(b1), topOutputs(b2)
		if diff := cmp.Diff(o1, o2, cmp.Comparer(bits.Vec.Equal)); diff != "" {
			t.Fatalf("iteration %d (seed %d): outputs differ (-ref +dut):\n%s", i, seed, diff)
			return
		}
	}
}
