package queue

import (
	"encoding/json"

	"github.com/catalog-next/internal/constants"

	"github.com/hibiken/asynq"
)

// TaskCatalogImport 旧系统目录导入任务
const TaskCatalogImport = constants.TaskCatalogImport

// CatalogImportPayload 目录导入任务载荷
type CatalogImportPayload struct {
	TriggeredBy string `json:"triggered_by"` // 触发导入的管理员用户名
}

// NewCatalogImportTask 创建目录导入任务
func NewCatalogImportTask(payload CatalogImportPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogImport, body), nil
}
