package taskimport

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"
)

// Adapt 把加载到的定义转换成 runner 需要的形式
// List 原样返回；Func 绑定 (handle, params...) 作为固定前缀参数
func Adapt(def task.Definition, opts Options, handle task.Handle) (task.Definition, error) {
	switch v := def.(type) {
	case task.List:
		return v, nil
	case task.Func:
		if v == nil {
			return nil, errors.New(xerr.ErrMalformedTask, "nil task function")
		}
		prefix := append([]any{handle}, opts.Params()...)
		return Bind(v, prefix...), nil
	default:
		return nil, errors.New(xerr.ErrMalformedTask, fmt.Sprintf("unsupported task definition %T", def))
	}
}

// Bind 偏应用：返回的函数以 prefix 作为前缀参数调用 fn，运行时参数按原顺序追加在后
func Bind(fn task.Func, prefix ...any) task.Func {
	fixed := append([]any(nil), prefix...)
	return func(args ...any) error {
		all := make([]any, 0, len(fixed)+len(args))
		all = append(all, fixed...)
		all = append(all, args...)
		return fn(all...)
	}
}

// TaskName 任务名：文件名去掉匹配到的扩展名，与目录层级无关
func TaskName(path, ext string) string {
	return strings.TrimSuffix(filepath.Base(path), ext)
}
