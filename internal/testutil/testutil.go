package testutil

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var defaultCmpOptions = []cmp.Option{
	// Rendered trees use nil for "no children", builders in tests tend to
	// produce empty slices.
	cmpopts.EquateEmpty(),
}

func Diff(a, b interface{}, opts ...cmp.Option) string {
	opts = append(opts, defaultCmpOptions...)
	return cmp.Diff(a, b, opts...)
}
