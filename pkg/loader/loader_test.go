package loader_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/loader"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandle 记录脚本对 runner handle 的调用
type recordingHandle struct {
	logs []string
	runs []string
	fail map[string]error
}

func (h *recordingHandle) Log(msg string) {
	h.logs = append(h.logs, msg)
}

func (h *recordingHandle) Run(name string) error {
	h.runs = append(h.runs, name)
	return h.fail[name]
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMuxDispatchesByExtension(t *testing.T) {
	var loaded []string
	fake := loader.LoaderFunc(func(path string) (task.Definition, error) {
		loaded = append(loaded, path)
		return task.List{"x"}, nil
	})

	m := loader.NewMux().Handle(".go", fake)

	def, err := m.Load("/tmp/tasks/build.GO")
	require.NoError(t, err)
	assert.Equal(t, task.List{"x"}, def)
	assert.Equal(t, []string{"/tmp/tasks/build.GO"}, loaded)

	_, err = m.Load("/tmp/tasks/build.rb")
	require.Error(t, err)
	assert.Equal(t, xerr.ErrNoLoader, errors.CodeOf(err))
	assert.True(t, loader.IsLoadError(err))
}

func TestDefaultExtensions(t *testing.T) {
	assert.Equal(t,
		[]string{".js", ".json", ".lua", ".toml", ".yaml", ".yml"},
		loader.Default().Extensions())
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	for _, ext := range []string{".js", ".lua", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			_, err := loader.Default().Load(missing + ext)
			require.Error(t, err)
			assert.True(t, loader.IsLoadError(err))
			assert.True(t, stderrors.Is(err, fs.ErrNotExist), "文件消失应保留 fs.ErrNotExist")
		})
	}
}

func TestJSList(t *testing.T) {
	path := writeFile(t, "default.js", `module.exports = ["clean", "build"];`)

	def, err := loader.JS{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, task.List{"clean", "build"}, def)
}

func TestJSFunc(t *testing.T) {
	path := writeFile(t, "hello.js", `
module.exports = function (runner, prefix, done) {
  runner.log(prefix + ":hello");
  runner.run("other");
  done();
};`)

	def, err := loader.JS{}.Load(path)
	require.NoError(t, err)
	fn, ok := def.(task.Func)
	require.True(t, ok, "导出函数应得到 task.Func")

	h := &recordingHandle{}
	called := false
	var doneErr error
	done := task.Done(func(err error) {
		called = true
		doneErr = err
	})

	require.NoError(t, fn(h, "p", done))
	assert.Equal(t, []string{"p:hello"}, h.logs)
	assert.Equal(t, []string{"other"}, h.runs)
	assert.True(t, called)
	assert.NoError(t, doneErr)
}

func TestJSFuncErrors(t *testing.T) {
	t.Run("throw", func(t *testing.T) {
		path := writeFile(t, "boom.js", `module.exports = function () { throw new Error("boom"); };`)
		def, err := loader.JS{}.Load(path)
		require.NoError(t, err)

		err = def.(task.Func)()
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("done with error", func(t *testing.T) {
		path := writeFile(t, "bad.js", `module.exports = function (done) { done(new Error("bad")); };`)
		def, err := loader.JS{}.Load(path)
		require.NoError(t, err)

		var got error
		require.NoError(t, def.(task.Func)(task.Done(func(err error) { got = err })))
		assert.ErrorContains(t, got, "bad")
	})

	t.Run("runner.run failure", func(t *testing.T) {
		path := writeFile(t, "nested.js", `module.exports = function (runner) { runner.run("missing"); };`)
		def, err := loader.JS{}.Load(path)
		require.NoError(t, err)

		h := &recordingHandle{fail: map[string]error{"missing": fmt.Errorf("no such task")}}
		assert.ErrorContains(t, def.(task.Func)(h), "no such task")
	})
}

func TestJSLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code int
	}{
		{"syntax", `module.exports = function (`, xerr.ErrModuleLoad},
		{"runtime", `throw new Error("load failed");`, xerr.ErrModuleLoad},
		{"object", `module.exports = { a: 1 };`, xerr.ErrUnsupportedShape},
		{"nothing", ``, xerr.ErrUnsupportedShape},
		{"number", `module.exports = 42;`, xerr.ErrUnsupportedShape},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name+".js", tc.src)
			_, err := loader.JS{}.Load(path)
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.CodeOf(err))
			assert.True(t, loader.IsLoadError(err))
		})
	}
}

func TestLuaList(t *testing.T) {
	path := writeFile(t, "default.lua", `return { "clean", "build" }`)

	def, err := loader.Lua{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, task.List{"clean", "build"}, def)
}

func TestLuaFunc(t *testing.T) {
	path := writeFile(t, "hello.lua", `
return function(runner, opts, done)
  runner.log(opts.name .. ":" .. opts.tags[2])
  runner.run("other")
  done()
end`)

	def, err := loader.Lua{}.Load(path)
	require.NoError(t, err)
	fn, ok := def.(task.Func)
	require.True(t, ok)

	h := &recordingHandle{}
	called := false
	opts := map[string]any{"name": "deploy", "tags": []string{"a", "b"}}

	require.NoError(t, fn(h, opts, task.Done(func(err error) {
		called = true
		assert.NoError(t, err)
	})))
	assert.Equal(t, []string{"deploy:b"}, h.logs)
	assert.Equal(t, []string{"other"}, h.runs)
	assert.True(t, called)
}

func TestLuaFuncErrors(t *testing.T) {
	t.Run("error()", func(t *testing.T) {
		path := writeFile(t, "boom.lua", `return function() error("boom") end`)
		def, err := loader.Lua{}.Load(path)
		require.NoError(t, err)
		assert.ErrorContains(t, def.(task.Func)(), "boom")
	})

	t.Run("done with error", func(t *testing.T) {
		path := writeFile(t, "bad.lua", `return function(done) done("bad") end`)
		def, err := loader.Lua{}.Load(path)
		require.NoError(t, err)

		var got error
		require.NoError(t, def.(task.Func)(task.Done(func(err error) { got = err })))
		assert.EqualError(t, got, "bad")
	})

	t.Run("runner.run failure", func(t *testing.T) {
		path := writeFile(t, "nested.lua", `return function(runner) runner.run("missing") end`)
		def, err := loader.Lua{}.Load(path)
		require.NoError(t, err)

		h := &recordingHandle{fail: map[string]error{"missing": fmt.Errorf("no such task")}}
		assert.ErrorContains(t, def.(task.Func)(h), "no such task")
	})
}

func TestLuaLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code int
	}{
		{"syntax", `return function(`, xerr.ErrModuleLoad},
		{"runtime", `error("load failed")`, xerr.ErrModuleLoad},
		{"map", `return { a = 1 }`, xerr.ErrUnsupportedShape},
		{"mixed", `return { "a", 2 }`, xerr.ErrUnsupportedShape},
		{"nothing", ``, xerr.ErrUnsupportedShape},
		{"number", `return 42`, xerr.ErrUnsupportedShape},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name+".lua", tc.src)
			_, err := loader.Lua{}.Load(path)
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.CodeOf(err))
		})
	}
}

func TestLuaSandbox(t *testing.T) {
	path := writeFile(t, "sandbox.lua", `return function() os.exit(1) end`)
	def, err := loader.Lua{}.Load(path)
	require.NoError(t, err)
	assert.Error(t, def.(task.Func)(), "os 库不应被打开")
}

func TestManifest(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "release.yaml", "series:\n  - clean\n  - build\n")
		def, err := loader.Manifest{}.Load(path)
		require.NoError(t, err)
		assert.Equal(t, task.List{"clean", "build"}, def)
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "release.json", `{"series": ["lint", "test"]}`)
		def, err := loader.Manifest{}.Load(path)
		require.NoError(t, err)
		assert.Equal(t, task.List{"lint", "test"}, def)
	})

	t.Run("missing series", func(t *testing.T) {
		path := writeFile(t, "release.yml", "description: nothing here\n")
		_, err := loader.Manifest{}.Load(path)
		require.Error(t, err)
		assert.Equal(t, xerr.ErrUnsupportedShape, errors.CodeOf(err))
	})

	t.Run("broken", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"series": [`)
		_, err := loader.Manifest{}.Load(path)
		require.Error(t, err)
		assert.Equal(t, xerr.ErrModuleLoad, errors.CodeOf(err))
	})
}
