package script

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

func (e *Engine) clientObject() *goja.Object {
	vm := e.vm
	client := vm.NewObject()

	_ = client.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		fmt.Fprintln(e.logWriter, strings.Join(parts, " "))
		return goja.Undefined()
	})

	_ = client.Set("test", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(vm.NewTypeError("Expected to get test name"))
		}
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("Expected to get test function"))
		}

		result := TestResult{Name: name}
		if _, err := fn(goja.Undefined()); err != nil {
			result.Error = exceptionMessage(err)
		}
		e.tests[name] = result
		return goja.Undefined()
	})

	_ = client.Set("assert", func(call goja.FunctionCall) goja.Value {
		condition, ok := call.Argument(0).Export().(bool)
		if !ok {
			panic(vm.NewTypeError("Expected to get assert condition"))
		}

		message := "Assertion failed"
		if s, ok := call.Argument(1).Export().(string); ok {
			message = s
		}

		if !condition {
			panic(vm.ToValue("Assertion failed: " + message))
		}
		return goja.Null()
	})

	_ = client.Set("global", e.globalAccessor())
	return client
}

// globalAccessor backs client.global. Reads fall back to the
// environment store for names that were never persisted; writes go to
// the global store only. Null and undefined are treated as absent:
// they are never stored and never returned as found.
func (e *Engine) globalAccessor() *goja.Object {
	return e.variablesObject(func() map[string]any { return e.global }, func() map[string]any { return e.env })
}

// variablesObject builds the get/set/clear/clearAll/isEmpty accessor
// shared by client.global and request.variables. fallbacks are
// consulted by get only.
func (e *Engine) variablesObject(store func() map[string]any, fallbacks ...func() map[string]any) *goja.Object {
	vm := e.vm
	obj := vm.NewObject()

	lookup := func(name string) (any, bool) {
		if value, ok := store()[name]; ok && value != nil {
			return value, true
		}
		for _, fallback := range fallbacks {
			if value, ok := fallback()[name]; ok && value != nil {
				return value, true
			}
		}
		return nil, false
	}

	_ = obj.Set("get", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			return goja.Undefined()
		}
		if value, ok := lookup(name); ok {
			return vm.ToValue(value)
		}
		return goja.Undefined()
	})

	_ = obj.Set("set", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			return goja.Undefined()
		}
		value := call.Argument(1)
		if goja.IsUndefined(value) || goja.IsNull(value) {
			return goja.Undefined()
		}
		store()[name] = value.Export()
		return goja.Undefined()
	})

	_ = obj.Set("clear", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(vm.NewTypeError("One argument is required"))
		}
		delete(store(), name)
		return goja.Undefined()
	})

	_ = obj.Set("clearAll", func(call goja.FunctionCall) goja.Value {
		m := store()
		for name := range m {
			delete(m, name)
		}
		return goja.Undefined()
	})

	_ = obj.Set("isEmpty", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(len(store()) == 0)
	})

	return obj
}
