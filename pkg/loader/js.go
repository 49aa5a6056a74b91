package loader

import (
	"errors"
	"os"
	"sync"

	"github.com/iceymoss/go-taskimport/pkg/task"

	"github.com/dop251/goja"
)

// JS 加载 CommonJS 风格的任务模块
// 每个文件独占一个 runtime，预置 module 和 exports，module.exports 即导出值
//
//	module.exports = ["clean", "build"];
//	module.exports = function (runner, done) { runner.log("hi"); done(); };
type JS struct{}

func (JS) Load(path string) (task.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err)
	}

	vm := goja.New()
	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, loadError(path, err)
	}
	if err := vm.Set("module", module); err != nil {
		return nil, loadError(path, err)
	}
	if err := vm.Set("exports", exports); err != nil {
		return nil, loadError(path, err)
	}

	if _, err := vm.RunScript(path, string(src)); err != nil {
		return nil, loadError(path, err)
	}

	exported := module.Get("exports")
	if fn, ok := goja.AssertFunction(exported); ok {
		m := &jsModule{vm: vm, fn: fn}
		return task.Func(m.call), nil
	}

	if obj, ok := exported.(*goja.Object); ok && obj.ClassName() == "Array" {
		var names []string
		if err := vm.ExportTo(exported, &names); err != nil {
			return nil, shapeError(path, "array")
		}
		return task.List(names), nil
	}

	got := "undefined"
	switch {
	case exported == nil || goja.IsUndefined(exported):
	case goja.IsNull(exported):
		got = "null"
	default:
		got = exported.ToObject(vm).ClassName()
	}
	return nil, shapeError(path, got)
}

// jsModule 串行调用同一个 runtime (goja runtime 非并发安全)
type jsModule struct {
	mu sync.Mutex
	vm *goja.Runtime
	fn goja.Callable
}

func (m *jsModule) call(args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = m.toJS(a)
	}

	_, err := m.fn(goja.Undefined(), vals...)
	return err
}

func (m *jsModule) toJS(v any) goja.Value {
	vm := m.vm
	switch val := v.(type) {
	case task.Handle:
		obj := vm.NewObject()
		_ = obj.Set("log", func(call goja.FunctionCall) goja.Value {
			val.Log(call.Argument(0).String())
			return goja.Undefined()
		})
		_ = obj.Set("run", func(call goja.FunctionCall) goja.Value {
			if err := val.Run(call.Argument(0).String()); err != nil {
				panic(vm.NewGoError(err))
			}
			return goja.Undefined()
		})
		return obj
	case task.Done:
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			arg := call.Argument(0)
			if goja.IsUndefined(arg) || goja.IsNull(arg) {
				val(nil)
			} else {
				val(errors.New(arg.String()))
			}
			return goja.Undefined()
		})
	default:
		return vm.ToValue(v)
	}
}
