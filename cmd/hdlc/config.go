// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"
)

//go:embed schema.cue
var schema []byte

type config struct {
	Design    string   `json:"design"`
	ClockHz   float64  `json:"clock_hz"`
	Width     int      `json:"width"`
	RateHz    float64  `json:"rate_hz"`
	PulseNs   int      `json:"pulse_ns"`
	AddrWidth int      `json:"addr_width"`
	BlockSize int      `json:"block_size"`
	Cycles    int      `json:"cycles"`
	Pins      string   `json:"pins"`
	Outputs   []string `json:"outputs"`
}

// loadConfig validates the CUE source src against the #Config schema and
// fills in defaults. A non empty design fills in the design field, which
// src may leave out.
//
func loadConfig(name string, src []byte, design string) (*config, error) {
	ctx := cuecontext.New()
	s := ctx.CompileBytes(schema, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "compiling schema")
	}
	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, errors.Wrapf(err, "compiling %s", name)
	}
	v = s.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if design != "" {
		v = v.FillPath(cue.ParsePath("design"), design)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration %s", name)
	}
	var c config
	if err := v.Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}
	return &c, nil
}
