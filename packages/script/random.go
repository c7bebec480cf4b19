package script

import (
	"math/rand"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

const (
	alphabeticChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	hexadecimalChars  = "0123456789ABCDEF"
)

// bindGenerators registers the dynamic variables. All of them are live:
// every read produces a fresh value, so two {{$random.uuid}} in one
// body substitute two different ids.
func (e *Engine) bindGenerators() error {
	vm := e.vm
	global := vm.GlobalObject()

	accessor := func(name string, get func() any) error {
		getter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(get())
		})
		return global.DefineAccessorProperty(name, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}

	if err := accessor("$uuid", func() any { return uuid.NewString() }); err != nil {
		return err
	}
	if err := accessor("$timestamp", func() any { return time.Now().Unix() }); err != nil {
		return err
	}
	if err := accessor("$isoTimestamp", func() any { return time.Now().Format(time.RFC3339) }); err != nil {
		return err
	}

	return vm.Set("$random", e.randomObject())
}

func (e *Engine) randomObject() *goja.Object {
	vm := e.vm
	random := vm.NewObject()

	accessor := func(name string, get func() goja.Value) {
		getter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return get()
		})
		_ = random.DefineAccessorProperty(name, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}

	accessor("uuid", func() goja.Value {
		return vm.ToValue(uuid.NewString())
	})
	accessor("email", func() goja.Value {
		return vm.ToValue(randomString(alphanumericChars, 12) + "@" + randomString(alphanumericChars, 6) + "." + randomString("abcdefghijklmnopqrstuvwxyz", 2))
	})
	accessor("integer", func() goja.Value {
		return e.rangedNumber(
			func() goja.Value { return vm.ToValue(rand.Int31()) },
			func(max int64) goja.Value { return vm.ToValue(rand.Int63n(max)) },
			func(min, max int64) goja.Value { return vm.ToValue(min + rand.Int63n(max-min)) },
		)
	})
	accessor("float", func() goja.Value {
		return e.rangedNumber(
			func() goja.Value { return vm.ToValue(rand.Float64()) },
			func(max int64) goja.Value { return vm.ToValue(rand.Float64() * float64(max)) },
			func(min, max int64) goja.Value { return vm.ToValue(float64(min) + rand.Float64()*float64(max-min)) },
		)
	})

	lengthFn := func(chars string) func(call goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			length, ok := exportInteger(call.Argument(0))
			if !ok {
				panic(vm.NewTypeError("Expected to get an integer"))
			}
			return vm.ToValue(randomString(chars, int(length)))
		}
	}
	_ = random.Set("alphabetic", lengthFn(alphabeticChars))
	_ = random.Set("alphanumeric", lengthFn(alphanumericChars))
	_ = random.Set("hexadecimal", lengthFn(hexadecimalChars))

	return random
}

// rangedNumber returns a function object that draws a bounded value
// when called with one or two arguments. The object also carries a
// toString drawing an unbounded value, so a bare {{$random.integer}}
// placeholder stringifies to a number instead of function source.
func (e *Engine) rangedNumber(plain func() goja.Value, upTo func(max int64) goja.Value, between func(min, max int64) goja.Value) goja.Value {
	vm := e.vm

	fn := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		switch len(call.Arguments) {
		case 1:
			max, ok := exportInteger(call.Argument(0))
			if !ok || max <= 0 {
				panic(vm.NewTypeError("Expected to get a positive integer"))
			}
			return upTo(max)
		case 2:
			min, okMin := exportInteger(call.Argument(0))
			max, okMax := exportInteger(call.Argument(1))
			if !okMin || !okMax || max <= min {
				panic(vm.NewTypeError("Expected to get an integer range"))
			}
			return between(min, max)
		default:
			return plain()
		}
	})

	obj := fn.ToObject(vm)
	_ = obj.Set("toString", func(call goja.FunctionCall) goja.Value {
		return plain()
	})
	return obj
}

func exportInteger(v goja.Value) (int64, bool) {
	switch n := v.Export().(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func randomString(chars string, length int) string {
	if length < 0 {
		length = 0
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = chars[rand.Intn(len(chars))]
	}
	return string(out)
}
