package tasks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"
)

// Registry 宿主 runner 自己的任务注册表
// 注册后任务定义归注册表所有，导入器不再持有
type Registry struct {
	tasks map[string]task.Definition
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]task.Definition),
	}
}

// RegisterTask 注册任务，同名任务重复注册会报错
func (r *Registry) RegisterTask(name string, def task.Definition) error {
	if name == "" {
		return errors.New(xerr.ErrMalformedTask, "task name must not be empty")
	}
	switch v := def.(type) {
	case task.List:
	case task.Func:
		if v == nil {
			return errors.New(xerr.ErrMalformedTask, fmt.Sprintf("task '%s' has a nil function", name))
		}
	default:
		return errors.New(xerr.ErrMalformedTask, fmt.Sprintf("task '%s' has unsupported definition %T", name, def))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[name]; ok {
		return errors.New(xerr.ErrDuplicateTask, fmt.Sprintf("task '%s' already registered", name))
	}
	r.tasks[name] = def
	return nil
}

func (r *Registry) GetTask(name string) (task.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tasks[name]
	if !ok {
		return nil, errors.New(xerr.ErrTaskNotFound, fmt.Sprintf("task '%s' not found", name))
	}
	return def, nil
}

// Names 按名称排序返回所有任务
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
