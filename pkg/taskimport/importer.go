// Package taskimport 扫描任务目录，把每个任务文件注册到 runner
//
// 一次 Import 只扫描一层目录：扩展名被识别的普通文件逐个加载，
// 以去掉扩展名的文件名作为任务名注册。导出任务名列表的模块原样注册，
// 导出函数的模块绑定 runner handle 和配置的 params 后注册。
//
//	sched := engine.NewScheduler()
//	err := taskimport.Import(sched, sched.Handle(), taskimport.Config{
//		Dir:        "build/tasks",
//		Extensions: []string{".js", ".lua"},
//		Params:     []any{cfg},
//	})
//
// Import 同步执行。文件系统、loader 或 runner 的第一个错误原样返回并中止扫描，
// 此前已注册的任务保留
package taskimport

import (
	"os"
	"path/filepath"

	"github.com/iceymoss/go-taskimport/pkg/loader"
	"github.com/iceymoss/go-taskimport/pkg/logger"
	"github.com/iceymoss/go-taskimport/pkg/task"

	"go.uber.org/zap"
)

// TraceNamespace 调试通道的命名空间，TASKIMPORT_DEBUG=taskimport 打开
const TraceNamespace = "taskimport"

// Importer 把目录中的任务文件注册到 runner
type Importer struct {
	runner task.Runner
	handle task.Handle
	loader loader.Loader
	log    *zap.Logger
	getwd  func() (string, error)
}

// ImporterOption 配置 Importer
type ImporterOption func(*Importer)

// WithLoader 替换模块加载器 (默认 loader.Default())
func WithLoader(l loader.Loader) ImporterOption {
	return func(im *Importer) {
		im.loader = l
	}
}

// WithLogger 指定调试通道
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// WithWorkingDir 固定工作目录，任务目录相对它解析 (默认 os.Getwd)
func WithWorkingDir(dir string) ImporterOption {
	return func(im *Importer) {
		im.getwd = func() (string, error) { return dir, nil }
	}
}

// New 创建 Importer；handle 会作为第一个参数绑定到每个可调用任务上
func New(runner task.Runner, handle task.Handle, opts ...ImporterOption) *Importer {
	im := &Importer{
		runner: runner,
		handle: handle,
		loader: loader.Default(),
		log:    logger.Trace(TraceNamespace),
		getwd:  os.Getwd,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import 一次性导入，等价于 New(runner, handle, opts...).Import(in)
func Import(runner task.Runner, handle task.Handle, in Input, opts ...ImporterOption) error {
	return New(runner, handle, opts...).Import(in)
}

// Import 扫描目录并注册所有合格的任务文件
func (im *Importer) Import(in Input) error {
	opts := Resolve(in)

	cwd, err := im.getwd()
	if err != nil {
		return err
	}
	dir := filepath.Join(cwd, opts.Dir())

	filenames, err := List(dir)
	if err != nil {
		return err
	}
	im.log.Debug("scanning directory",
		zap.String("dir", dir),
		zap.Strings("extensions", opts.Extensions()),
		zap.Int("entries", len(filenames)))

	for _, filename := range filenames {
		entry, reason, err := Classify(dir, filename, opts)
		if err != nil {
			return err
		}
		im.log.Debug("found file", zap.String("file", entry.Path))

		if reason != "" {
			im.log.Debug("skipped", zap.String("file", entry.Path), zap.String("reason", reason))
			continue
		}

		if err := im.importFile(entry, opts); err != nil {
			return err
		}
	}

	return nil
}

func (im *Importer) importFile(entry FileEntry, opts Options) error {
	im.log.Debug("import started", zap.String("file", entry.Path))
	def, err := im.loader.Load(entry.Path)
	if err != nil {
		return err
	}
	im.log.Debug("import finished", zap.String("file", entry.Path), zap.String("kind", task.Kind(def)))

	adapted, err := Adapt(def, opts, im.handle)
	if err != nil {
		return err
	}

	name := TaskName(entry.Path, entry.Ext)
	if err := Register(im.runner, name, adapted); err != nil {
		return err
	}
	im.log.Debug("registered task", zap.String("task", name), zap.String("file", entry.Path))
	return nil
}
