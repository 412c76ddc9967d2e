package importer

import (
	"errors"
	"sync"
	"time"

	"github.com/catalog-next/internal/logger"
)

// ErrImportRunning 已有导入任务在执行
var ErrImportRunning = errors.New("import already running")

// ErrSourceUnavailable 旧系统源库未配置或不可连接
var ErrSourceUnavailable = errors.New("legacy source unavailable")

// BuildFunc 构造一次性的导入器实例，cleanup 负责释放源库连接
type BuildFunc func() (*Importer, func(), error)

// RunStatus 最近一次导入的状态快照
type RunStatus struct {
	Running    bool      `json:"running"`
	LastRunAt  time.Time `json:"last_run_at"`
	LastError  string    `json:"last_error,omitempty"`
	LastReport *Report   `json:"last_report,omitempty"`
}

// Manager 串行化导入执行并保留最近一次结果
type Manager struct {
	build BuildFunc

	mu         sync.Mutex
	running    bool
	lastRunAt  time.Time
	lastError  string
	lastReport *Report
}

// NewManager 创建导入管理器
func NewManager(build BuildFunc) *Manager {
	return &Manager{build: build}
}

// Run 执行一次导入，同一时刻只允许一个执行中的任务
func (m *Manager) Run() (*Report, error) {
	if m == nil || m.build == nil {
		return nil, ErrSourceUnavailable
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrImportRunning
	}
	m.running = true
	m.lastRunAt = time.Now()
	m.mu.Unlock()

	report, err := m.runOnce()

	m.mu.Lock()
	m.running = false
	m.lastReport = report
	if err != nil {
		m.lastError = err.Error()
	} else {
		m.lastError = ""
	}
	m.mu.Unlock()

	return report, err
}

func (m *Manager) runOnce() (*Report, error) {
	imp, cleanup, err := m.build()
	if err != nil {
		logger.Errorw("legacy_import_source_open_failed", "error", err)
		return nil, ErrSourceUnavailable
	}
	if cleanup != nil {
		defer cleanup()
	}
	return imp.Run()
}

// Status 返回当前状态快照
func (m *Manager) Status() RunStatus {
	if m == nil {
		return RunStatus{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return RunStatus{
		Running:    m.running,
		LastRunAt:  m.lastRunAt,
		LastError:  m.lastError,
		LastReport: m.lastReport,
	}
}
