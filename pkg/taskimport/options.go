package taskimport

import "maps"

const (
	// DefaultDir 默认任务目录 (相对当前工作目录)
	DefaultDir = "tasks"
)

// DefaultExtensions 默认识别的文件扩展名
var DefaultExtensions = []string{".js"}

// Input 调用方传入的选项：Dir 或 Config 二选一，nil 表示全部使用默认值
type Input interface {
	input()
}

// Dir 目录简写，只覆盖 dir
type Dir string

// Config 部分配置，未提供的字段使用默认值
// Extra 中的额外键原样保留到 Options 中
type Config struct {
	Dir        string
	Extensions []string
	Params     []any
	Extra      map[string]any
}

func (Dir) input()    {}
func (Config) input() {}

// Options 解析后的完整选项，构建后只读
type Options struct {
	dir        string
	extensions []string
	params     []any
	extra      map[string]any
}

// Resolve 把调用方选项合并到默认值上
// 不校验扩展名格式，也不检查目录是否存在
func Resolve(in Input) Options {
	opts := Options{
		dir:        DefaultDir,
		extensions: append([]string(nil), DefaultExtensions...),
		params:     []any{},
		extra:      map[string]any{},
	}

	switch v := in.(type) {
	case Dir:
		if v != "" {
			opts.dir = string(v)
		}
	case Config:
		if v.Dir != "" {
			opts.dir = v.Dir
		}
		if len(v.Extensions) > 0 {
			opts.extensions = append([]string(nil), v.Extensions...)
		}
		if v.Params != nil {
			opts.params = append([]any{}, v.Params...)
		}
		maps.Copy(opts.extra, v.Extra)
	case *Config:
		if v != nil {
			return Resolve(*v)
		}
	}

	return opts
}

// Dir 任务目录
func (o Options) Dir() string {
	return o.dir
}

// Extensions 识别的扩展名 (副本)
func (o Options) Extensions() []string {
	return append([]string(nil), o.extensions...)
}

// Params 绑定到可调用任务上的额外参数 (副本)
func (o Options) Params() []any {
	return append([]any{}, o.params...)
}

// Extra 调用方传入的额外键
func (o Options) Extra(key string) (any, bool) {
	v, ok := o.extra[key]
	return v, ok
}

// HasExtension 判断扩展名是否在识别集合内
func (o Options) HasExtension(ext string) bool {
	for _, e := range o.extensions {
		if e == ext {
			return true
		}
	}
	return false
}
