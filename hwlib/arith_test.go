package hwlib_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
)

// settle runs update passes on b until it is stable.
func settle(t *testing.T, b *hdl.Block) {
	t.Helper()
	for i := 0; i < hdl.DefaultMaxPasses; i++ {
		b.UpdateAll()
		if !b.HasChanged() {
			return
		}
	}
	t.Fatal("circuit did not settle")
}

func TestAdder(t *testing.T) {
	a := hwlib.NewAdder(16)
	b := hdl.Elaborate(a)
	f := func(x, y uint16) bool {
		a.A.Next = bits.New(16, uint64(x))
		a.B.Next = bits.New(16, uint64(y))
		settle(t, b)
		s := uint64(x) + uint64(y)
		return a.Sum.Val().Uint64() == s&0xffff && bool(a.Carry.Val()) == (s > 0xffff)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestMux(t *testing.T) {
	m, err := hwlib.NewMux(3, bits.Zero(4))
	if err != nil {
		t.Fatal(err)
	}
	if m.Sel.Width() != 2 {
		t.Fatalf("sel width = %d, expected 2", m.Sel.Width())
	}
	b := hdl.Elaborate(m)
	for i := range m.Inputs {
		m.Inputs[i].Next = bits.New(4, uint64(i+10))
	}
	data := []struct {
		sel uint64
		out uint64
	}{
		{0, 10},
		{1, 11},
		{2, 12},
		{3, 10}, // out of range
	}
	for _, d := range data {
		m.Sel.Next = bits.New(2, d.sel)
		settle(t, b)
		if got := m.Out.Val().Uint64(); got != d.out {
			t.Errorf("sel=%d: got %d, expected %d", d.sel, got, d.out)
		}
	}
	if _, err = hwlib.NewMux(1, bits.Zero(4)); err == nil {
		t.Error("single input multiplexer accepted")
	}
}
