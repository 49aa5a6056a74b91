package taskimport

import "github.com/iceymoss/go-taskimport/pkg/task"

// Register 调用 runner 的注册入口，错误原样返回，不做捕获、包装或重试
func Register(runner task.Runner, name string, def task.Definition) error {
	return runner.RegisterTask(name, def)
}
