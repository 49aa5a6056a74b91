package engine

import (
	"sort"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// TaskStats 任务运行时状态
type TaskStats struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`        // series, func
	CronExpr    string    `json:"cron_expr"`   // 未调度时为空
	Status      string    `json:"status"`      // Idle, Running, Error
	LastRunTime string    `json:"last_run"`    // 格式化后的时间
	NextRunTime string    `json:"next_run"`    // 格式化后的时间
	LastResult  string    `json:"last_result"` // 成功或错误信息
	RunCount    int64     `json:"run_count"`
	rawNext     time.Time // 用于内部计算
}

type StatManager struct {
	stats map[string]*TaskStats
	mu    sync.RWMutex
}

func NewStatManager() *StatManager {
	return &StatManager{
		stats: make(map[string]*TaskStats),
	}
}

func (m *StatManager) Set(name string, stat *TaskStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = stat
}

// Update 在锁内修改状态，任务不存在时忽略
func (m *StatManager) Update(name string, fn func(stat *TaskStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stat, ok := m.stats[name]; ok {
		fn(stat)
	}
}

// Get 返回状态副本
func (m *StatManager) Get(name string) (TaskStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stat, ok := m.stats[name]
	if !ok {
		return TaskStats{}, false
	}
	return *stat, true
}

func (m *StatManager) GetAll() []TaskStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]TaskStats, 0, len(m.stats))
	for _, s := range m.stats {
		list = append(list, *s)
	}
	// 按名称排序
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
