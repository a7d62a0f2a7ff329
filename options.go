// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"os"
	"runtime"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	// MaxDefaultAnnotationCount is the default filled into
	// Options.MaxAnnotationCount. Annotation parsing does not read it;
	// annotation sets are capped by the fixed maxAnnotationSetSize.
	MaxDefaultAnnotationCount = 0x4000

	// MaxDefaultStringRefsPerMethod is the default filled into
	// Options.MaxStringRefsPerMethod. The instruction walker does not
	// read it and records every string operand.
	MaxDefaultStringRefsPerMethod = 0x10000
)

// Options configures a Session. The zero value is valid: every field has a
// documented default applied by New.
type Options struct {
	// ThreadNum sets the worker pool width. Zero means
	// runtime.GOMAXPROCS(0).
	ThreadNum int

	// EagerFullCache builds every index for every loaded image before
	// New returns, equivalent to calling InitFullCache immediately.
	EagerFullCache bool

	// MaxAnnotationCount is stored on the Session's options; zero means
	// MaxDefaultAnnotationCount. Annotation parsing does not consult it:
	// every annotation set is capped at maxAnnotationSetSize entries.
	MaxAnnotationCount uint32

	// MaxStringRefsPerMethod is stored on the Session's options; zero
	// means MaxDefaultStringRefsPerMethod. The instruction walker does not
	// consult it and records every string operand of a method body.
	MaxStringRefsPerMethod uint32

	// DisableCertValidation skips the non-fatal APK JAR-signing
	// diagnostic performed when loading from a zip archive.
	DisableCertValidation bool

	// Logger is a custom logger; nil means a stderr logger filtered to
	// LevelError.
	Logger log.Logger
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.ThreadNum <= 0 {
		out.ThreadNum = runtime.GOMAXPROCS(0)
	}
	if out.MaxAnnotationCount == 0 {
		out.MaxAnnotationCount = MaxDefaultAnnotationCount
	}
	if out.MaxStringRefsPerMethod == 0 {
		out.MaxStringRefsPerMethod = MaxDefaultStringRefsPerMethod
	}
	return &out
}

func newHelper(o *Options) *log.Helper {
	if o.Logger != nil {
		return log.NewHelper(o.Logger)
	}
	logger := log.NewStdLogger(os.Stderr)
	return log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))
}
