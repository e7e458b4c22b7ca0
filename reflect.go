// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/db47h/hdl/verilog"
	"github.com/pkg/errors"
)

// Logic is the interface that circuit blocks must implement. Blocks are
// pointers to structs whose exported fields are signals, constants, child
// blocks, signal bundles or arrays and slices of those.
//
// By default, the name of a field in the elaboration is the field name in
// snake case. A specific name can be forced with a field tag: `hdl:"name"`.
// Fields tagged `hdl:"-"` are ignored.
//
type Logic interface {
	// Update computes the pending values of the signals driven by the block
	// from the current values of the signals it reads.
	Update()
}

// Connector is implemented by blocks that mark the signals they drive
// explicitly. Blocks with a Combinatorial HDL body need not implement it.
//
type Connector interface {
	Connect()
}

// HDLer is implemented by blocks that have a Verilog description.
//
type HDLer interface {
	HDL() verilog.Verilog
}

var (
	logicType = reflect.TypeOf((*Logic)(nil)).Elem()
	atomType  = reflect.TypeOf((*atom)(nil)).Elem()
)

type fieldKind int

const (
	fieldNone fieldKind = iota
	fieldAtom
	fieldBlock
	fieldNamespace
	fieldContainer
)

type field struct {
	name string
	kind fieldKind
	v    reflect.Value // pointer to the field value
}

var kinds sync.Map // reflect.Type -> fieldKind

// classify returns how values of type t take part in an elaboration.
//
func classify(t reflect.Type) fieldKind {
	if k, ok := kinds.Load(t); ok {
		return k.(fieldKind)
	}
	// guard against recursive types
	kinds.Store(t, fieldNone)
	k := classifyType(t)
	kinds.Store(t, k)
	return k
}

func classifyType(t reflect.Type) fieldKind {
	switch t.Kind() {
	case reflect.Struct:
		pt := reflect.PointerTo(t)
		if pt.Implements(atomType) {
			return fieldAtom
		}
		if pt.Implements(logicType) {
			return fieldBlock
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || f.Tag.Get("hdl") == "-" {
				continue
			}
			if classify(f.Type) != fieldNone {
				return fieldNamespace
			}
		}
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Struct && t.Implements(logicType) {
			return fieldBlock
		}
	case reflect.Array, reflect.Slice:
		if classify(t.Elem()) != fieldNone {
			return fieldContainer
		}
	}
	return fieldNone
}

// fields returns the hardware fields of the struct pointed to by v, in
// declaration order. Containers are expanded with index suffixed names.
//
func fields(v reflect.Value) []field {
	e := v.Elem()
	typ := e.Type()
	var fs []field
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := snakeCase(f.Name)
		if tag, ok := f.Tag.Lookup("hdl"); ok {
			if tag == "-" {
				continue
			}
			if strings.ContainsAny(tag, " ,.$") {
				panic(errors.Errorf("invalid tag %q for field %q in %q", tag, f.Name, typ.Name()))
			}
			if tag != "" {
				name = tag
			}
		}
		fs = appendField(fs, name, e.Field(i))
	}
	return fs
}

func appendField(fs []field, name string, fv reflect.Value) []field {
	switch classify(fv.Type()) {
	case fieldAtom:
		return append(fs, field{name, fieldAtom, fv.Addr()})
	case fieldNamespace:
		return append(fs, field{name, fieldNamespace, fv.Addr()})
	case fieldBlock:
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return fs
			}
			return append(fs, field{name, fieldBlock, fv})
		}
		return append(fs, field{name, fieldBlock, fv.Addr()})
	case fieldContainer:
		for i := 0; i < fv.Len(); i++ {
			fs = appendField(fs, name+"_"+strconv.Itoa(i), fv.Index(i))
		}
	}
	return fs
}

// snakeCase converts a Go identifier to snake case: "WriteEnable" becomes
// "write_enable" and "HTTPClock" becomes "http_clock".
//
func snakeCase(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(rs[i-1]) && rs[i-1] != '_' ||
				i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1])) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
