// Package helpers holds the template helper functions and the per-run
// registry they are validated into before a template sees them.
package helpers

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/mailgun/raymond/v2"
)

// ErrInvalidHelper is returned for helpers the template engine could not call.
var ErrInvalidHelper = errors.New("invalid helper")

// Names the engine defines itself.
var builtin = map[string]bool{
	"if": true, "unless": true, "with": true, "each": true, "log": true,
	"lookup": true, "equal": true, "ifGt": true, "ifLt": true, "ifEq": true,
	"ifMatchesRegexStr": true, "pluralize": true,
}

var (
	anyType     = reflect.TypeOf((*interface{})(nil)).Elem()
	anySlice    = reflect.TypeOf([]interface{}(nil))
	optionsType = reflect.TypeOf((*raymond.Options)(nil))
	stringType  = reflect.TypeOf("")
	safeType    = reflect.TypeOf(raymond.SafeString(""))
)

// Registry is a name to helper mapping owned by one render.
type Registry struct {
	funcs map[string]interface{}
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]interface{}{}}
}

// Register validates fn and adds it under name. A helper takes interface{}
// arguments (or a trailing ...interface{}), optionally followed by
// *raymond.Options, and returns exactly one string or SafeString.
func (r *Registry) Register(name string, fn interface{}) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidHelper)
	}
	if builtin[name] {
		return fmt.Errorf("%w: %q shadows a built-in helper", ErrInvalidHelper, name)
	}
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("%w: %q already registered", ErrInvalidHelper, name)
	}
	if err := checkSignature(reflect.TypeOf(fn)); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidHelper, name, err)
	}
	r.funcs[name] = fn
	return nil
}

func checkSignature(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Func {
		return errors.New("not a function")
	}
	if t.NumOut() != 1 {
		return fmt.Errorf("must return exactly one value, returns %d", t.NumOut())
	}
	if out := t.Out(0); out != stringType && out != safeType {
		return fmt.Errorf("must return string or SafeString, returns %s", out)
	}

	n := t.NumIn()
	if n > 0 && t.In(n-1) == optionsType {
		if t.IsVariadic() {
			return errors.New("options cannot follow variadic arguments")
		}
		n--
	}
	for i := 0; i < n; i++ {
		in := t.In(i)
		if t.IsVariadic() && i == t.NumIn()-1 {
			if in != anySlice {
				return fmt.Errorf("variadic argument must be ...interface{}, is %s", in)
			}
			continue
		}
		if in != anyType {
			return fmt.Errorf("argument %d must be interface{}, is %s", i, in)
		}
	}
	return nil
}

// Lookup returns the helper registered under name.
func (r *Registry) Lookup(name string) (interface{}, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

func (r *Registry) Len() int { return len(r.funcs) }

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Funcs returns a copy of the mapping for handing to the template engine.
func (r *Registry) Funcs() map[string]interface{} {
	out := make(map[string]interface{}, len(r.funcs))
	for name, fn := range r.funcs {
		out[name] = fn
	}
	return out
}
