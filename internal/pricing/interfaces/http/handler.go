// Package http 定价服务的 HTTP 接口
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"github.com/wyfcoding/riskcanvas/pkg/response"
)

// DefaultDecimalPlaces 数值输出默认保留的小数位
const DefaultDecimalPlaces = 10

// PricingHandler HTTP 处理器
type PricingHandler struct {
	app    *application.PricingService
	render renderer
}

// NewPricingHandler 创建 HTTP 处理器，places <= 0 时使用默认小数位
func NewPricingHandler(app *application.PricingService, places int32) *PricingHandler {
	if places <= 0 {
		places = DefaultDecimalPlaces
	}
	return &PricingHandler{app: app, render: renderer{places: places}}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/pricing")
	{
		option := api.Group("/option")
		option.POST("/price", h.PriceOption)
		option.POST("/greeks", h.OptionGreeks)
		option.POST("/implied-vol", h.ImpliedVolatility)
		option.POST("/batch", h.BatchPriceOptions)

		bond := api.Group("/bond")
		bond.POST("/present-value", h.bondMetric(h.app.BondPresentValue))
		bond.POST("/duration", h.bondMetric(h.app.BondDuration))
		bond.POST("/modified-duration", h.bondMetric(h.app.BondModifiedDuration))
		bond.POST("/convexity", h.bondMetric(h.app.BondConvexity))
		bond.POST("/dv01", h.bondMetric(h.app.BondDV01))
		bond.POST("/analytics", h.BondAnalytics)
		bond.POST("/yield", h.BondYield)
	}
}

// PriceOption 期权价格
func (h *PricingHandler) PriceOption(c *gin.Context) {
	h.optionMetric(c, h.app.PriceOption)
}

// OptionGreeks 期权希腊字母
func (h *PricingHandler) OptionGreeks(c *gin.Context) {
	h.optionMetric(c, h.app.OptionGreeks)
}

func (h *PricingHandler) optionMetric(c *gin.Context, fn func(context.Context, application.PriceOptionCommand) (domain.PricingResult, error)) {
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := fn(c.Request.Context(), application.PriceOptionCommand{Params: params})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, h.render.result(result))
}

// ImpliedVolatility 隐含波动率
func (h *PricingHandler) ImpliedVolatility(c *gin.Context) {
	var req ImpliedVolatilityRequest
	if !bind(c, &req) {
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.app.ImpliedVolatility(c.Request.Context(), application.ImpliedVolatilityCommand{
		Params:      params,
		TargetPrice: req.TargetPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, h.render.result(result))
}

// BatchPriceOptions 批量定价，无法解析的合约记为该项失败
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchRequest
	if !bind(c, &req) {
		return
	}

	contracts := make([]domain.OptionParameters, len(req.Contracts))
	for i, r := range req.Contracts {
		contracts[i] = r.contract()
	}

	result, err := h.app.BatchPriceOptions(c.Request.Context(), application.BatchPriceOptionsCommand{
		BatchID:       req.BatchID,
		Contracts:     contracts,
		IncludeGreeks: req.IncludeGreeks,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, h.render.batch(result))
}

func (h *PricingHandler) bondMetric(fn func(context.Context, application.BondCommand) (domain.PricingResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BondRequest
		if !bind(c, &req) {
			return
		}
		result, err := fn(c.Request.Context(), application.BondCommand{Params: req.params()})
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, h.render.result(result))
	}
}

// BondAnalytics 债券全部指标
func (h *PricingHandler) BondAnalytics(c *gin.Context) {
	var req BondRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.app.BondAnalytics(c.Request.Context(), application.BondCommand{Params: req.params()})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, h.render.analytics(result))
}

// BondYield 到期收益率
func (h *PricingHandler) BondYield(c *gin.Context) {
	var req BondYieldRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.app.BondYield(c.Request.Context(), application.BondYieldCommand{
		Params:      req.params(),
		TargetPrice: req.TargetPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, h.render.result(result))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, response.CodeBadRequest, err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	code := application.ErrorCode(err)
	if code == response.CodeInternalError {
		logger.Error(c.Request.Context(), "pricing request failed", "path", c.FullPath(), "error", err)
		response.Error(c, code, "internal server error")
		return
	}
	response.Error(c, code, err.Error())
}
