// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/db47h/hdl"
	"github.com/pkg/errors"
)

// TB is the subset of testing.TB used by the helpers of this package. Both
// *testing.T and ginkgo.GinkgoT() implement it.
//
type TB interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Skipf(format string, args ...interface{})
}

// Check elaborates l, connects it and runs all the circuit checks. It fails
// t and returns nil if any check fails.
//
func Check(t TB, l hdl.Logic) *hdl.Block {
	t.Helper()
	b := hdl.Elaborate(l)
	b.ConnectAll()
	if err := hdl.CheckAll(b); err != nil {
		t.Fatalf("%v", err)
		return nil
	}
	return b
}

// Verilog returns the Verilog translation unit of l. It fails t if the
// circuit does not pass the checks or cannot be lowered.
//
func Verilog(t TB, l hdl.Logic) string {
	t.Helper()
	b := Check(t, l)
	if b == nil {
		return ""
	}
	v, err := hdl.GenerateVerilog(b)
	if err != nil {
		t.Fatalf("%v", err)
		return ""
	}
	return v
}

// ErrNoYosys is returned by YosysValidate when yosys is not installed.
//
var ErrNoYosys = errors.New("yosys not found in PATH")

// SynthesisError reports Verilog rejected by yosys.
//
type SynthesisError struct {
	Err    error
	Stdout string
	Stderr string
}

func (e *SynthesisError) Error() string {
	return "yosys: " + e.Err.Error() + "\n" + e.Stderr
}

// Cause returns the error of the yosys command.
//
func (e *SynthesisError) Cause() error { return e.Err }

// YosysValidate checks that the Verilog text, whose top module is "top",
// is accepted by yosys. name is used to name the temporary source file.
//
func YosysValidate(ctx context.Context, name, text string) error {
	yosys, err := exec.LookPath("yosys")
	if err != nil {
		return ErrNoYosys
	}
	dir, err := os.MkdirTemp("", "hwtest")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.RemoveAll(dir)
	src := filepath.Join(dir, name+".v")
	if err = os.WriteFile(src, []byte(text), 0o644); err != nil {
		return errors.WithStack(err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, yosys, "-q", "-p", "read_verilog "+src+"; hierarchy -check -top top; proc; opt")
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err = cmd.Run(); err != nil {
		return &SynthesisError{Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
	}
	return nil
}

// Validate lowers l to Verilog and checks it with yosys. It skips t when
// yosys is not installed.
//
func Validate(t TB, name string, l hdl.Logic) {
	t.Helper()
	v := Verilog(t, l)
	if v == "" {
		return
	}
	switch err := YosysValidate(context.Background(), name, v); err {
	case nil:
	case ErrNoYosys:
		t.Skipf("%v", err)
	default:
		t.Fatalf("%v", err)
	}
}
