// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// ReceiptRouteHandler defines the route set every receipt handler shares.
type ReceiptRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Transition(c *gin.Context)
}

// ReceiptApplyHandler is implemented by receipts whose terminal operation
// writes stock (imports and returns).
type ReceiptApplyHandler interface {
	Apply(c *gin.Context)
}

// ReceiptBalanceHandler is implemented by receipts whose terminal operation
// reconciles counted quantities (checks).
type ReceiptBalanceHandler interface {
	Balance(c *gin.Context)
}

// RegisterReceiptRoutes registers the standard CRUD + transition routes for
// a receipt type, plus the terminal route the handler supports.
//
// Usage:
//
//	repo := document_repo.NewImportReceiptRepo(txManager)
//	service := importreceipt.NewService(repo, ledgerRepo, num, txManager, recorder)
//	handler := handlers.NewImportReceiptHandler(baseHandler, service, engine)
//	RegisterReceiptRoutes(receipts.Group("/imports"), handler)
func RegisterReceiptRoutes(group *gin.RouterGroup, handler ReceiptRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/transition", handler.Transition)

	if applyHandler, ok := handler.(ReceiptApplyHandler); ok {
		group.POST("/:id/apply", applyHandler.Apply)
	}
	if balanceHandler, ok := handler.(ReceiptBalanceHandler); ok {
		group.POST("/:id/balance", balanceHandler.Balance)
	}
}
