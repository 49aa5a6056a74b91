package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/iceymoss/go-taskimport/pkg/task"

	lua "github.com/yuin/gopher-lua"
)

// Lua 加载 Lua 任务模块，chunk 的返回值即导出值
//
//	return { "clean", "build" }          -- task.List
//	return function(runner, ...) end     -- task.Func
//
// 只打开 base、table、string、math 标准库
type Lua struct{}

func (Lua) Load(path string) (task.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	fn, err := L.Load(bytes.NewReader(src), path)
	if err != nil {
		L.Close()
		return nil, loadError(path, err)
	}

	L.Push(fn)
	if err := protect(func() error { return L.PCall(0, 1, nil) }); err != nil {
		L.Close()
		return nil, loadError(path, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LFunction:
		// state 与注册的任务同生命周期
		m := &luaModule{L: L, fn: v}
		return task.Func(m.call), nil
	case *lua.LTable:
		defer L.Close()
		names, ok := tableToList(v)
		if !ok {
			return nil, shapeError(path, "table")
		}
		return names, nil
	default:
		L.Close()
		return nil, shapeError(path, ret.Type().String())
	}
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// tableToList 只接受 1..n 连续的字符串数组
func tableToList(t *lua.LTable) (task.List, bool) {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) {
		count++
	})
	if count != n {
		return nil, false
	}

	names := make(task.List, 0, n)
	for i := 1; i <= n; i++ {
		s, ok := t.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, false
		}
		names = append(names, string(s))
	}
	return names, true
}

// luaModule 串行调用同一个 LState，调度器可能在多个 goroutine 中执行任务
type luaModule struct {
	mu sync.Mutex
	L  *lua.LState
	fn *lua.LFunction
}

func (m *luaModule) call(args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = m.toLua(a)
	}

	return protect(func() error {
		return m.L.CallByParam(lua.P{Fn: m.fn, NRet: 0, Protect: true}, largs...)
	})
}

func (m *luaModule) toLua(v any) lua.LValue {
	L := m.L
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case task.Handle:
		return handleTable(L, val)
	case task.Done:
		return L.NewFunction(func(L *lua.LState) int {
			if arg := L.Get(1); lua.LVAsBool(arg) {
				val(errors.New(arg.String()))
			} else {
				val(nil)
			}
			return 0
		})
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, m.toLua(item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, m.toLua(item))
		}
		return t
	case map[string]string:
		t := L.NewTable()
		for k, s := range val {
			t.RawSetString(k, lua.LString(s))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// handleTable 把 runner handle 暴露为 { log = fn, run = fn }
func handleTable(L *lua.LState, h task.Handle) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "log", L.NewFunction(func(L *lua.LState) int {
		h.Log(L.CheckString(1))
		return 0
	}))
	L.SetField(t, "run", L.NewFunction(func(L *lua.LState) int {
		if err := h.Run(L.CheckString(1)); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))
	return t
}

// protect 把解释器内部的 panic 转成 error
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
