// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
	"github.com/pkg/errors"
)

type atomDetails struct {
	name   string
	kind   AtomKind
	width  int
	signed bool
	value  bits.Vec
}

type enumDef struct {
	name  string
	width int
	value int
}

type moduleDetails struct {
	atoms []atomDetails
	subs  []string // scope paths of the children
	enums []enumDef
	code  verilog.Verilog
}

func (d *moduleDetails) addEnums(desc Descriptor) {
	for i, v := range desc.Variants {
		e := enumDef{enumLocalParam(desc.Name, v), desc.Width, i}
		found := false
		for _, x := range d.enums {
			if x == e {
				found = true
				break
			}
		}
		if !found {
			d.enums = append(d.enums, e)
		}
	}
}

func verilogKind(k AtomKind) string {
	switch k {
	case InputParameter:
		return "input wire"
	case OutputParameter:
		return "output reg"
	case PassthroughParameter:
		return "output wire"
	case InOutParameter:
		return "inout wire"
	case StubOutputSignal:
		return "wire"
	case ConstantSignal:
		return "localparam"
	}
	return "reg"
}

func decl(a atomDetails) string {
	if a.kind == ConstantSignal {
		lit := a.value.Verilog()
		if a.signed {
			lit = a.value.Signed().Verilog()
		}
		return "localparam " + a.name + " = " + lit + ";"
	}
	s := verilogKind(a.kind)
	if a.signed {
		s += " signed"
	}
	if a.width > 1 {
		s += " [" + strconv.Itoa(a.width-1) + ":0]"
	}
	return s + " " + a.name + ";"
}

// ModuleDefines is a probe that collects the module definitions of a block
// hierarchy. Each scope becomes a module named after its '$' separated path.
// Child ports are declared as stub signals in the parent and wired to the
// child instance.
//
// Scopes that render to the same definition, up to their own name, are
// merged into a single module named after the first of their paths in
// sorted order.
//
type ModuleDefines struct {
	pathProbe
	details map[string]*moduleDetails
}

// NewModuleDefines returns a new ModuleDefines probe.
//
func NewModuleDefines() *ModuleDefines {
	return &ModuleDefines{details: make(map[string]*moduleDetails)}
}

func (m *ModuleDefines) module(path string) *moduleDetails {
	d := m.details[path]
	if d == nil {
		d = new(moduleDetails)
		m.details[path] = d
	}
	return d
}

func (m *ModuleDefines) VisitStartScope(name string, b *Block) {
	parent := m.path.String()
	m.pathProbe.VisitStartScope(name, b)
	path := m.path.String()
	m.module(path).code = b.HDL()
	if parent != "" {
		p := m.module(parent)
		p.subs = append(p.subs, path)
	}
}

func (m *ModuleDefines) VisitAtom(name string, a Atom) {
	desc := a.Descriptor()
	ad := atomDetails{
		name:   m.atomName(name),
		kind:   a.Kind(),
		width:  a.Width(),
		signed: desc.Kind == KindSigned,
		value:  a.Value(),
	}
	d := m.module(m.path.String())
	d.atoms = append(d.atoms, ad)
	if desc.Kind == KindEnum {
		d.addEnums(desc)
	}
	if m.path.Len() < 2 {
		return
	}
	p := m.module(m.path.Parent())
	if ad.kind.IsParameter() {
		stub := ad
		stub.name = m.path.Last() + "$" + ad.name
		stub.kind = StubOutputSignal
		if ad.kind == InputParameter {
			stub.kind = StubInputSignal
		}
		p.atoms = append(p.atoms, stub)
	}
	if desc.Kind == KindEnum {
		p.addEnums(desc)
	}
}

func lastName(path string) string {
	return path[strings.LastIndexByte(path, '$')+1:]
}

// render returns the definition of the module at path, named name. kindOf
// returns the module name to use for child instances.
func (m *ModuleDefines) render(path, name string, kindOf func(child string) string) (string, error) {
	d := m.details[path]
	body, err := verilog.Generate(d.code)
	if err != nil {
		return "", errors.Wrapf(err, "module %s", path)
	}

	var args, consts, stubs, locals []string
	var ports []string
	for _, a := range d.atoms {
		switch {
		case a.kind.IsParameter():
			ports = append(ports, a.name)
			args = append(args, decl(a))
		case a.kind.IsStub():
			stubs = append(stubs, decl(a))
		case a.kind == ConstantSignal:
			consts = append(consts, decl(a))
		default:
			locals = append(locals, decl(a))
		}
	}
	var enums []string
	for _, e := range d.enums {
		enums = append(enums, "localparam "+e.name+" = "+strconv.Itoa(e.width)+"'d"+strconv.Itoa(e.value)+";")
	}
	var instances []string
	for _, c := range d.subs {
		inst := lastName(c)
		var conns []string
		for _, a := range m.details[c].atoms {
			if a.kind.IsParameter() {
				conns = append(conns, "."+a.name+"("+inst+"$"+a.name+")")
			}
		}
		instances = append(instances, kindOf(c)+" "+inst+"("+strings.Join(conns, ",")+");")
	}

	var w verilog.CodeWriter
	w.AddLine("module " + name + "(" + strings.Join(ports, ",") + ");")
	w.Push()
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		w.Next()
		w.AddLine("// " + title)
		for _, l := range lines {
			w.AddLine(l)
		}
	}
	section("Module arguments", args)
	section("Constant declarations", consts)
	section("Enums", enums)
	section("Stub signals", stubs)
	section("Local signals", locals)
	section("Sub module instances", instances)
	if body != "" {
		title := "Update code"
		switch d.code.(type) {
		case verilog.Custom:
			title += " (custom)"
		case verilog.Wrapper:
			title += " (wrapper)"
		}
		w.Next()
		w.AddLine("// " + title)
		w.Add(body)
	}
	w.Pop()
	w.AddLine("endmodule // " + name)
	return w.String(), nil
}

func (m *ModuleDefines) blackbox(path string) (verilog.Blackbox, bool) {
	bb, ok := m.details[path].code.(verilog.Blackbox)
	return bb, ok
}

// Modules returns the deduplicated module definitions, by module name.
// Black box scopes have no definition.
//
func (m *ModuleDefines) Modules() (map[string]string, error) {
	paths := make([]string, 0, len(m.details))
	for p := range m.details {
		if _, ok := m.blackbox(p); !ok {
			paths = append(paths, p)
		}
	}
	// children before parents
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "$"), strings.Count(paths[j], "$")
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})

	class := make(map[string]string, len(paths))
	canon := make(map[string]string)
	for _, p := range paths {
		text, err := m.render(p, "\x00", func(c string) string {
			if bb, ok := m.blackbox(c); ok {
				return bb.Name
			}
			return "\x00" + class[c]
		})
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256([]byte(text))
		h := hex.EncodeToString(sum[:])
		class[p] = h
		if c, ok := canon[h]; !ok || p < c {
			canon[h] = p
		}
	}

	mods := make(map[string]string, len(canon))
	for _, p := range canon {
		text, err := m.render(p, p, func(c string) string {
			if bb, ok := m.blackbox(c); ok {
				return bb.Name
			}
			return canon[class[c]]
		})
		if err != nil {
			return nil, err
		}
		mods[p] = text
	}
	return mods, nil
}

// Defines returns the Verilog translation unit: the module definitions in
// sorted order followed by the black box declarations and wrapped cores.
//
func (m *ModuleDefines) Defines() (string, error) {
	mods, err := m.Modules()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(mods))
	for n := range mods {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString("\n\n")
		b.WriteString(mods[n])
	}

	paths := make([]string, 0, len(m.details))
	for p := range m.details {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	seen := make(map[string]bool)
	for _, p := range paths {
		var extra string
		switch v := m.details[p].code.(type) {
		case verilog.Blackbox:
			extra = v.Body
		case verilog.Wrapper:
			extra = v.Cores
		}
		if extra == "" || seen[extra] {
			continue
		}
		seen[extra] = true
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(extra, "\n"))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// GenerateVerilog connects the hierarchy rooted at b, runs all the checkers
// and returns its Verilog translation unit, with b as module "top".
//
func GenerateVerilog(b *Block) (string, error) {
	b.ConnectAll()
	if err := CheckAll(b); err != nil {
		return "", err
	}
	return GenerateVerilogUnchecked(b)
}

// GenerateVerilogUnchecked returns the Verilog translation unit of b without
// checking it.
//
func GenerateVerilogUnchecked(b *Block) (string, error) {
	m := NewModuleDefines()
	b.Accept("top", m)
	return m.Defines()
}
