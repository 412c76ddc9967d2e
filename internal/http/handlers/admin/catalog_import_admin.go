package admin

import (
	"errors"

	"github.com/catalog-next/internal/http/response"
	"github.com/catalog-next/internal/importer"
	"github.com/catalog-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// TriggerCatalogImport 触发一次旧系统目录导入
// 队列可用时异步执行，否则同步执行并直接返回报表
func (h *Handler) TriggerCatalogImport(c *gin.Context) {
	if h.ImportManager == nil {
		respondError(c, response.CodeBadRequest, "legacy source not configured", nil)
		return
	}

	operator := currentOperator(c)
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueCatalogImport(queue.CatalogImportPayload{TriggeredBy: operator}); err != nil {
			respondError(c, response.CodeInternal, "import enqueue failed", err)
			return
		}
		requestLog(c).Infow("catalog_import_enqueued", "triggered_by", operator)
		response.Success(c, gin.H{"queued": true})
		return
	}

	report, err := h.ImportManager.Run()
	if err != nil {
		if errors.Is(err, importer.ErrImportRunning) {
			respondError(c, response.CodeBadRequest, "import already running", nil)
			return
		}
		if errors.Is(err, importer.ErrSourceUnavailable) {
			respondError(c, response.CodeInternal, "legacy source unavailable", err)
			return
		}
		respondError(c, response.CodeInternal, "import failed", err)
		return
	}
	response.Success(c, gin.H{
		"queued": false,
		"report": report,
	})
}

// GetCatalogImportStatus 查询最近一次导入状态
func (h *Handler) GetCatalogImportStatus(c *gin.Context) {
	if h.ImportManager == nil {
		respondError(c, response.CodeBadRequest, "legacy source not configured", nil)
		return
	}
	response.Success(c, h.ImportManager.Status())
}
