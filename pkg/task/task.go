package task

import "fmt"

// Definition 任务定义：List 或 Func 二选一
// 由加载器在边界处决定一次，下游不再重新判断
type Definition interface {
	definition()
}

// List 由任务名组成的有序组合任务，按原样注册
type List []string

// Func 可调用任务
// 绑定之后第一个参数是 runner handle，其后是用户参数，最后是运行时参数
type Func func(args ...any) error

func (List) definition() {}
func (Func) definition() {}

// Kind 返回定义的类型名 (用于日志与统计)
func Kind(def Definition) string {
	switch def.(type) {
	case List:
		return "series"
	case Func:
		return "func"
	default:
		return fmt.Sprintf("%T", def)
	}
}

// Done 运行时由 runner 传给可调用任务的完成信号
type Done func(err error)

// Handle runner 交给每个可调用任务的句柄
type Handle interface {
	// Log 以当前 runner 的名义输出一行日志
	Log(msg string)

	// Run 执行另一个已注册的任务
	Run(name string) error
}

// Runner 宿主任务执行器的注册入口
type Runner interface {
	RegisterTask(name string, def Definition) error
}
