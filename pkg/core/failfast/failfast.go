// Package failfast turns programmer errors into immediate panics. It is for
// wiring mistakes (a nil logger passed to an option, a config that cannot
// load at startup), not for runtime conditions callers should handle.
package failfast

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
)

// ErrFailFast is wrapped by every panic value raised from this package.
var ErrFailFast = errors.New("fail-fast")

// Err panics if err != nil, attaching the current stack.
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("%w: %w\n%s", ErrFailFast, err, debug.Stack()))
	}
}

// Errf is Err with a formatted prefix describing what was being done.
func Errf(err error, format string, args ...interface{}) {
	if err != nil {
		panic(fmt.Errorf("%w: %s: %w", ErrFailFast, fmt.Sprintf(format, args...), err))
	}
}

// If panics unless condition holds.
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("%w: %s", ErrFailFast, fmt.Sprintf(message, args...)))
	}
}

// NotNil panics if v is nil, including typed nils hidden in an interface
// (pointers, funcs, maps, channels).
func NotNil(v interface{}, name string) {
	if isNil(v) {
		panic(fmt.Errorf("%w: %s is nil", ErrFailFast, name))
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
