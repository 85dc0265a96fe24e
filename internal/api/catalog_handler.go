// Package api 提供目录页的HTTP API处理器
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/cms"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/middleware"
	"github.com/MorseWayne/shoe_catalog/internal/resp"
	"github.com/MorseWayne/shoe_catalog/internal/service"
	"github.com/MorseWayne/shoe_catalog/internal/session"
)

// CatalogHandler 目录页API处理器
type CatalogHandler struct {
	catalog service.CatalogService
	contact service.ContactService
	logger  *zap.Logger
}

// NewCatalogHandler 创建目录页API处理器
func NewCatalogHandler(catalog service.CatalogService, contact service.ContactService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		catalog: catalog,
		contact: contact,
		logger:  logger,
	}
}

// filterRequest 下拉框选择，空串表示不约束
type filterRequest struct {
	Size  string `json:"size"`
	Brand string `json:"brand"`
	Price string `json:"price"`
}

// contactResponse 联系链接
type contactResponse struct {
	ProductCode string `json:"product_code"`
	Link        string `json:"link"`
}

// GetOptions 获取尺码、品牌、价格三个下拉框的选项
// @Router /api/v1/catalog/options [get]
func (h *CatalogHandler) GetOptions(c *gin.Context) {
	opts, err := h.catalog.GetFilterOptions(c.Request.Context())
	if err != nil {
		h.writeError(c, "get filter options", err)
		return
	}
	resp.OK(c.Writer, opts, h.getRequestID(c), "")
}

// OpenSession 创建浏览会话并返回第0页
// @Router /api/v1/catalog/sessions [post]
func (h *CatalogHandler) OpenSession(c *gin.Context) {
	page, err := h.catalog.OpenSession(c.Request.Context())
	if err != nil {
		h.writeError(c, "open session", err)
		return
	}
	resp.WriteJSON(c.Writer, http.StatusCreated, resp.CodeOK, "success", page, h.getRequestID(c), "")
}

// GetSession 重新加载会话当前页
// @Router /api/v1/catalog/sessions/{id} [get]
func (h *CatalogHandler) GetSession(c *gin.Context) {
	h.sessionOp(c, "load current page", h.catalog.CurrentPage)
}

// ApplyFilter 更新过滤条件并回到第0页
// @Router /api/v1/catalog/sessions/{id}/filters [put]
func (h *CatalogHandler) ApplyFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid filter request", zap.Error(err))
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam,
			"invalid request body", h.getRequestID(c), "")
		return
	}

	sel := domain.FilterSelection{Size: req.Size, Brand: req.Brand, PriceBucketLabel: req.Price}
	h.sessionOp(c, "apply filter", func(ctx context.Context, id string) (*domain.CatalogPage, error) {
		return h.catalog.ApplyFilter(ctx, id, sel)
	})
}

// NextPage 下一页
// @Router /api/v1/catalog/sessions/{id}/next [post]
func (h *CatalogHandler) NextPage(c *gin.Context) {
	h.sessionOp(c, "next page", h.catalog.NextPage)
}

// PrevPage 上一页
// @Router /api/v1/catalog/sessions/{id}/prev [post]
func (h *CatalogHandler) PrevPage(c *gin.Context) {
	h.sessionOp(c, "previous page", h.catalog.PrevPage)
}

// Contact 跳转到商品的 WhatsApp 咨询链接，format=json 时返回链接
// @Router /api/v1/catalog/products/{code}/contact [get]
func (h *CatalogHandler) Contact(c *gin.Context) {
	code := c.Param("code")
	event, err := h.contact.Contact(c.Request.Context(), code, h.getRequestID(c))
	if err != nil {
		h.writeError(c, "contact product", err)
		return
	}

	if strings.EqualFold(c.Query("format"), "json") {
		resp.OK(c.Writer, &contactResponse{ProductCode: event.ProductCode, Link: event.Link}, h.getRequestID(c), "")
		return
	}
	c.Redirect(http.StatusFound, event.Link)
}

// RefreshOptions 丢弃缓存的下拉框选项（管理端）
// @Router /api/v1/admin/catalog/options/refresh [post]
// @Security Bearer
func (h *CatalogHandler) RefreshOptions(c *gin.Context) {
	if err := h.catalog.RefreshOptions(c.Request.Context()); err != nil {
		h.writeError(c, "refresh options", err)
		return
	}
	h.logger.Info("filter options refreshed",
		zap.String("admin", middleware.AdminSubject(c)),
		zap.String("request_id", h.getRequestID(c)),
	)
	resp.OK(c.Writer, gin.H{"refreshed": true}, h.getRequestID(c), "")
}

// sessionOp 解析会话ID并执行会话操作
func (h *CatalogHandler) sessionOp(c *gin.Context, op string, fn func(context.Context, string) (*domain.CatalogPage, error)) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam,
			"session id is required", h.getRequestID(c), "")
		return
	}

	page, err := fn(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	resp.OK(c.Writer, page, h.getRequestID(c), "")
}

// writeError 将业务错误映射为HTTP响应
func (h *CatalogHandler) writeError(c *gin.Context, op string, err error) {
	reqID := h.getRequestID(c)

	var (
		status int
		code   int
		msg    string
	)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status, code, msg = http.StatusNotFound, resp.CodeNotFound, "session not found or expired"
	case errors.Is(err, session.ErrStaleResult):
		status, code, msg = http.StatusConflict, resp.CodeConflict, "superseded by a newer request"
	case errors.Is(err, service.ErrProductNotFound):
		status, code, msg = http.StatusNotFound, resp.CodeNotFound, "product not found"
	case errors.Is(err, service.ErrInvalidCode):
		status, code, msg = http.StatusBadRequest, resp.CodeInvalidParam, err.Error()
	case errors.Is(err, cms.ErrUpstream):
		status, code, msg = http.StatusBadGateway, resp.CodeUpstream, "catalog data source unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code, msg = http.StatusGatewayTimeout, resp.CodeTimeout, "request timeout"
	default:
		status, code, msg = http.StatusInternalServerError, resp.CodeInternalError, "internal server error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.String("request_id", reqID), zap.Error(err))
	} else {
		h.logger.Debug(op+" rejected", zap.String("request_id", reqID), zap.Error(err))
	}
	resp.Error(c.Writer, status, code, msg, reqID, "")
}

// getRequestID 获取请求ID
func (h *CatalogHandler) getRequestID(c *gin.Context) string {
	if id := middleware.RequestIDFromContext(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(middleware.HeaderRequestID)
}
