package script

import (
	"github.com/dop251/goja"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
)

// requestObject exposes the request to pre-request scripts: the
// per-request variable store, a read-only environment accessor and raw
// vs. substituted views of the url, body and headers. Substituted
// views resolve placeholders on demand; when resolution fails the raw
// text comes back unchanged.
func (e *Engine) requestObject(request *parser.Request) *goja.Object {
	vm := e.vm
	obj := vm.NewObject()

	_ = obj.Set("variables", e.variablesObject(func() map[string]any { return e.request }))
	_ = obj.Set("environment", e.environmentAccessor())

	if request == nil {
		return obj
	}

	_ = obj.Set("url", e.valueView(request.Target))
	_ = obj.Set("body", e.valueView(request.Body))
	_ = obj.Set("headers", e.headersView(request.Headers))
	return obj
}

func (e *Engine) environmentAccessor() *goja.Object {
	vm := e.vm
	obj := vm.NewObject()
	_ = obj.Set("get", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			return goja.Undefined()
		}
		if value, ok := e.env[name]; ok && value != nil {
			return vm.ToValue(value)
		}
		return goja.Undefined()
	})
	return obj
}

func (e *Engine) valueView(value *parser.Value) *goja.Object {
	vm := e.vm
	obj := vm.NewObject()

	_ = obj.Set("getRawValue", func(call goja.FunctionCall) goja.Value {
		if value == nil {
			return goja.Null()
		}
		return vm.ToValue(value.Text)
	})
	_ = obj.Set("tryGetSubstitutedValue", func(call goja.FunctionCall) goja.Value {
		if value == nil {
			return goja.Null()
		}
		substituted, err := e.Process(value)
		if err != nil {
			return vm.ToValue(value.Text)
		}
		return vm.ToValue(substituted)
	})

	return obj
}

func (e *Engine) headersView(headers []*parser.Header) *goja.Object {
	vm := e.vm
	obj := vm.NewObject()

	view := func(h *parser.Header) *goja.Object {
		header := e.valueView(h.Value)
		_ = header.Set("name", h.Name)
		return header
	}

	_ = obj.Set("all", func(call goja.FunctionCall) goja.Value {
		all := make([]any, 0, len(headers))
		for _, h := range headers {
			all = append(all, view(h))
		}
		return vm.ToValue(all)
	})
	_ = obj.Set("findByName", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			return goja.Null()
		}
		for _, h := range headers {
			if h.Name == name {
				return view(h)
			}
		}
		return goja.Null()
	})

	return obj
}
