// Package loader 把任务文件加载成任务定义
//
// Loader 读取单个文件，加载时确定导出的是任务名列表 (task.List) 还是函数 (task.Func)。
// Mux 按扩展名分发，同一目录可以混放 JavaScript、Lua 和 manifest 任务文件
package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"
)

// Loader 加载 path 处的任务模块
type Loader interface {
	Load(path string) (task.Definition, error)
}

// LoaderFunc 普通函数适配成 Loader
type LoaderFunc func(path string) (task.Definition, error)

func (f LoaderFunc) Load(path string) (task.Definition, error) {
	return f(path)
}

// Mux 按扩展名选择 Loader
type Mux struct {
	loaders map[string]Loader
}

func NewMux() *Mux {
	return &Mux{loaders: make(map[string]Loader)}
}

// Default 注册了全部内置 loader 的 Mux
func Default() *Mux {
	m := NewMux()
	m.Handle(".js", JS{})
	m.Handle(".lua", Lua{})
	for _, ext := range ManifestExtensions {
		m.Handle(ext, Manifest{})
	}
	return m
}

// Handle 为扩展名 ext 注册 loader，重复注册时后者覆盖前者
func (m *Mux) Handle(ext string, l Loader) *Mux {
	m.loaders[strings.ToLower(ext)] = l
	return m
}

// Extensions 已注册的扩展名 (排序)
func (m *Mux) Extensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load 按 path 的扩展名分发
func (m *Mux) Load(path string) (task.Definition, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := m.loaders[ext]
	if !ok {
		return nil, errors.New(xerr.ErrNoLoader, fmt.Sprintf("no loader registered for %q (%s)", ext, path))
	}
	return l.Load(path)
}

// IsLoadError 判断错误是否产生于加载任务模块阶段
func IsLoadError(err error) bool {
	switch errors.CodeOf(err) {
	case xerr.ErrModuleLoad, xerr.ErrNoLoader, xerr.ErrUnsupportedShape:
		return true
	}
	return false
}

func loadError(path string, err error) error {
	return errors.Wrap(xerr.ErrModuleLoad, "load "+path, err)
}

func shapeError(path, got string) error {
	return errors.New(xerr.ErrUnsupportedShape,
		fmt.Sprintf("%s must export a list of task names or a function, got %s", path, got))
}
