package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iceymoss/go-taskimport/internal/tasks"
	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/logger"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultTimeout 单次调度执行的超时时间，覆盖整个任务树
const DefaultTimeout = 30 * time.Minute

// 同时支持 5 段与 6 段 (带秒) 表达式以及 @every 等描述符
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler 参考实现的宿主 runner：注册表 + 执行 + cron 调度
type Scheduler struct {
	cron     *cron.Cron
	Stats    *StatManager
	registry *tasks.Registry
	log      *zap.Logger
	timeout  time.Duration
}

// SchedulerOption 配置 Scheduler
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger 指定日志
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithTimeout 指定调度执行的超时时间
func WithTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		Stats:    NewStatManager(),
		registry: tasks.NewRegistry(),
		log:      logger.Named("engine"),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterTask 实现 task.Runner，注册错误原样返回
func (s *Scheduler) RegisterTask(name string, def task.Definition) error {
	if err := s.registry.RegisterTask(name, def); err != nil {
		return err
	}

	s.Stats.Set(name, &TaskStats{
		Name:       name,
		Kind:       task.Kind(def),
		Status:     "Idle",
		LastResult: "Pending",
	})
	return nil
}

// Registry 返回底层注册表
func (s *Scheduler) Registry() *tasks.Registry {
	return s.registry
}

// Handle 返回交给可调用任务的 runner handle
func (s *Scheduler) Handle() task.Handle {
	return &runnerHandle{s: s}
}

// AddJob 按 cron 表达式调度一个已注册的任务
func (s *Scheduler) AddJob(cronExpr, taskName string) error {
	if _, err := s.registry.GetTask(taskName); err != nil {
		return err
	}

	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return errors.Wrap(xerr.ErrInvalidInput, fmt.Sprintf("invalid cron expression %q", cronExpr), err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runWithTimeout(taskName)
	}))

	next := schedule.Next(time.Now())
	s.Stats.Update(taskName, func(stat *TaskStats) {
		stat.CronExpr = cronExpr
		stat.rawNext = next
		stat.NextRunTime = next.Format(timeLayout)
	})
	return nil
}

// Run 同步执行任务：series 按顺序执行子任务，func 以 task.Done 作为运行时参数调用
func (s *Scheduler) Run(ctx context.Context, name string) error {
	return s.run(ctx, name, nil)
}

func (s *Scheduler) run(ctx context.Context, name string, stack []string) error {
	for _, n := range stack {
		if n == name {
			return errors.New(xerr.ErrTaskCycle,
				fmt.Sprintf("task cycle: %s -> %s", strings.Join(stack, " -> "), name))
		}
	}

	def, err := s.registry.GetTask(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stack = append(stack[:len(stack):len(stack)], name)

	s.markStart(name)
	err = s.execute(ctx, def, stack)
	s.markFinish(name, err)
	return err
}

func (s *Scheduler) execute(ctx context.Context, def task.Definition, stack []string) error {
	switch v := def.(type) {
	case task.List:
		for _, child := range v {
			if err := s.run(ctx, child, stack); err != nil {
				return err
			}
		}
		return nil
	case task.Func:
		return s.call(ctx, v)
	default:
		return errors.New(xerr.ErrMalformedTask, fmt.Sprintf("unsupported task definition %T", def))
	}
}

// call 在独立 goroutine 中执行 func 任务，ctx 结束时立即返回
// 超时后被放弃的调用会在后台继续跑完，结果丢弃
func (s *Scheduler) call(ctx context.Context, fn task.Func) error {
	result := make(chan error, 1)
	go func() {
		var doneErr error
		err := fn(task.Done(func(err error) {
			doneErr = err
		}))
		if err == nil {
			err = doneErr
		}
		result <- err
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return errors.Wrap(xerr.ErrTaskTimeout, "task interrupted", ctx.Err())
	}
}

func (s *Scheduler) markStart(name string) {
	s.log.Info("🚀 [Run] Starting task", zap.String("task", name))
	s.Stats.Update(name, func(stat *TaskStats) {
		stat.Status = "Running"
		stat.LastRunTime = time.Now().Format(timeLayout)
		stat.RunCount++
	})
}

func (s *Scheduler) markFinish(name string, err error) {
	s.Stats.Update(name, func(stat *TaskStats) {
		if err != nil {
			stat.Status = "Error"
			stat.LastResult = fmt.Sprintf("Error: %v", err)
		} else {
			stat.Status = "Idle"
			stat.LastResult = "Success"
		}
		if !stat.rawNext.IsZero() && !stat.rawNext.After(time.Now()) {
			if schedule, perr := cronParser.Parse(stat.CronExpr); perr == nil {
				stat.rawNext = schedule.Next(time.Now())
				stat.NextRunTime = stat.rawNext.Format(timeLayout)
			}
		}
	})

	if err != nil {
		s.log.Error("❌ [Run] Task failed", zap.String("task", name), zap.Error(err))
	} else {
		s.log.Info("✅ [Run] Task finished", zap.String("task", name))
	}
}

// runWithTimeout 调度触发时执行 (带超时控制)
func (s *Scheduler) runWithTimeout(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.Run(ctx, name)
}

// ManualRun 手动触发，异步执行
func (s *Scheduler) ManualRun(name string) error {
	if _, err := s.registry.GetTask(name); err != nil {
		return err
	}
	go s.runWithTimeout(name)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runnerHandle 任务执行时拿到的 runner handle
type runnerHandle struct {
	s *Scheduler
}

func (h *runnerHandle) Log(msg string) {
	h.s.log.Info(msg)
}

func (h *runnerHandle) Run(name string) error {
	return h.s.Run(context.Background(), name)
}
