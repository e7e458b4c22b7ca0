package hdl_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
	"github.com/google/go-cmp/cmp"
)

var phase = hdl.NewEnum("Phase", "Idle", "Run")

type pair struct {
	In    hdl.Signal[hdl.In, hdl.Bit]
	Out   hdl.Signal[hdl.Out, hdl.Bit]
	Mode  hdl.Constant[bits.Vec]
	State hdl.Signal[hdl.Local, hdl.Enum]
	Inv0  *inverter
	Inv1  *inverter
}

func newPair() *pair {
	return &pair{
		Mode:  hdl.NewConstant(bits.New(4, 5)),
		State: hdl.NewSignal[hdl.Local](phase.Value("Idle")),
		Inv0:  &inverter{},
		Inv1:  &inverter{},
	}
}

func (p *pair) Update() {
	p.Inv0.In.Next = p.In.Val()
	p.Inv1.In.Next = p.Inv0.Out.Val()
	p.Out.Next = p.Inv1.Out.Val()
	p.State.Next = phase.Value("Run")
}

func (p *pair) HDL() verilog.Verilog {
	k := hdl.NewKernel(p)
	return k.Combinatorial(
		k.Assign(&p.Inv0.In, k.Val(&p.In)),
		k.Assign(&p.Inv1.In, k.Val(&p.Inv0.Out)),
		k.Assign(&p.Out, k.Val(&p.Inv1.Out)),
		k.Assign(&p.State, k.Enum(phase.Value("Run"))),
	)
}

const pairTop = `module top(in,out);

    // Module arguments
    input wire in;
    output reg out;

    // Constant declarations
    localparam mode = 4'h5;

    // Enums
    localparam Phase$Idle = 1'd0;
    localparam Phase$Run = 1'd1;

    // Stub signals
    reg inv0$in;
    wire inv0$out;
    reg inv1$in;
    wire inv1$out;

    // Local signals
    reg state;

    // Sub module instances
    top$inv0 inv0(.in(inv0$in),.out(inv0$out));
    top$inv0 inv1(.in(inv1$in),.out(inv1$out));

    // Update code
    always @(*) begin
        inv0$in = in;
        inv1$in = inv0$out;
        out = inv1$out;
        state = Phase$Run;
    end
endmodule // top
`

const pairInverter = `module top$inv0(in,out);

    // Module arguments
    input wire in;
    output reg out;

    // Update code
    always @(*) begin
        out = ~in;
    end
endmodule // top$inv0
`

func TestModuleDefines(t *testing.T) {
	m := hdl.NewModuleDefines()
	hdl.Elaborate(newPair()).Accept("top", m)
	mods, err := m.Modules()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for n := range mods {
		names = append(names, n)
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"top", "top$inv0"}, names); diff != "" {
		t.Fatalf("modules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pairTop, mods["top"]); diff != "" {
		t.Errorf("top (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pairInverter, mods["top$inv0"]); diff != "" {
		t.Errorf("inverter (-want +got):\n%s", diff)
	}

	defs, err := m.Defines()
	if err != nil {
		t.Fatal(err)
	}
	if want := "\n\n" + pairTop + "\n\n" + pairInverter; defs != want {
		t.Errorf("defines (-want +got):\n%s", cmp.Diff(want, defs))
	}
}

type ibuf struct {
	I hdl.Signal[hdl.In, hdl.Bit]  `hdl:"I"`
	O hdl.Signal[hdl.Out, hdl.Bit] `hdl:"O"`
}

func (b *ibuf) Update()  { b.O.Next = b.I.Val() }
func (b *ibuf) Connect() { b.O.Connect() }

const ibufDecl = "(* blackbox *)\nmodule IBUF(I, O);\ninput I;\noutput O;\nendmodule"

func (*ibuf) HDL() verilog.Verilog {
	return verilog.Blackbox{Name: "IBUF", Body: ibufDecl}
}

type core struct {
	A hdl.Signal[hdl.In, hdl.Bit]
	Y hdl.Signal[hdl.Out, hdl.Bit]
}

func (c *core) Update()  { c.Y.Next = c.A.Val() }
func (c *core) Connect() { c.Y.Connect() }

const coreDecl = "module mycore(input a, output y);\nassign y = a;\nendmodule\n"

func (*core) HDL() verilog.Verilog {
	return verilog.Wrapper{Code: "mycore u(.a(a), .y(y));", Cores: coreDecl}
}

type board struct {
	Pin  hdl.Signal[hdl.In, hdl.Bit]
	Led  hdl.Signal[hdl.Out, hdl.Bit]
	Buf0 *ibuf
	Buf1 *ibuf
	Core *core
}

func (b *board) Update() {
	b.Buf0.I.Next = b.Pin.Val()
	b.Buf1.I.Next = b.Buf0.O.Val()
	b.Core.A.Next = b.Buf1.O.Val()
	b.Led.Next = b.Core.Y.Val()
}

func (b *board) HDL() verilog.Verilog {
	k := hdl.NewKernel(b)
	return k.Combinatorial(
		k.Assign(&b.Buf0.I, k.Val(&b.Pin)),
		k.Assign(&b.Buf1.I, k.Val(&b.Buf0.O)),
		k.Assign(&b.Core.A, k.Val(&b.Buf1.O)),
		k.Assign(&b.Led, k.Val(&b.Core.Y)),
	)
}

func TestBlackboxAndWrapper(t *testing.T) {
	text, err := hdl.GenerateVerilog(hdl.Elaborate(&board{Buf0: &ibuf{}, Buf1: &ibuf{}, Core: &core{}}))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"    IBUF buf0(.I(buf0$I),.O(buf0$O));\n",
		"    IBUF buf1(.I(buf1$I),.O(buf1$O));\n",
		"    top$core core(.a(core$a),.y(core$y));\n",
		"    // Update code (wrapper)\n    mycore u(.a(a), .y(y));\nendmodule // top$core\n",
		"\n" + ibufDecl + "\n",
		"\n" + coreDecl,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "module top$buf0") {
		t.Error("black box scope rendered as a module")
	}
	if n := strings.Count(text, ibufDecl); n != 1 {
		t.Errorf("black box declared %d times", n)
	}
	if err := verilog.Validate(text); err != nil {
		t.Errorf("translation unit does not validate: %v", err)
	}
	if strings.Contains(verilog.FilterBlackbox(text), "IBUF(I, O)") {
		t.Error("black box not filtered")
	}
}

type badCustom struct {
	Out hdl.Signal[hdl.Out, hdl.Bit]
}

func (b *badCustom) Update()  {}
func (b *badCustom) Connect() { b.Out.Connect() }

func (*badCustom) HDL() verilog.Verilog {
	return verilog.Custom("always @(*) begin\n    out = 1'b1;\n")
}

func TestGenerateVerilogErrors(t *testing.T) {
	_, err := hdl.GenerateVerilog(hdl.Elaborate(&undriven{Child: &leaf{}}))
	if _, ok := err.(*hdl.CheckError); !ok {
		t.Fatalf("got %v, want a *CheckError", err)
	}
	_, err = hdl.GenerateVerilog(hdl.Elaborate(&badCustom{}))
	if err == nil || !strings.Contains(err.Error(), "module top") {
		t.Fatalf("got %v, want an invalid custom Verilog error", err)
	}
	for name, tc := range map[string]struct {
		logic hdl.Logic
		check func(*hdl.CheckError) bool
	}{
		"loop":           {&feedback{Inv: &inverter{}}, func(e *hdl.CheckError) bool { return len(e.Loops) == 1 }},
		"write to input": {&selfWriter{}, func(e *hdl.CheckError) bool { return len(e.Writes) == 1 }},
	} {
		_, err := hdl.GenerateVerilog(hdl.Elaborate(tc.logic))
		ce, ok := err.(*hdl.CheckError)
		if !ok || !tc.check(ce) {
			t.Errorf("%s: got %v", name, err)
		}
	}
	if _, err = hdl.GenerateVerilog(hdl.Elaborate(&accumulator{})); err != nil {
		t.Errorf("read back after assignment: %v", err)
	}
	if _, err = hdl.GenerateVerilogUnchecked(hdl.Elaborate(&undriven{Child: &leaf{}})); err != nil {
		t.Fatalf("unchecked generation failed: %v", err)
	}
}
