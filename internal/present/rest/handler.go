package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"

	"github.com/ittaigolde/spkkn-words/internal/domain"
	"github.com/ittaigolde/spkkn-words/internal/present/rest/middleware"
	"github.com/ittaigolde/spkkn-words/internal/present/rest/presenter"
	"github.com/ittaigolde/spkkn-words/internal/usecase"
)

// ClaimStreamer feeds committed claims matching the subscribed prefixes to a
// realtime consumer until ctx is cancelled.
type ClaimStreamer interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ClaimEvent)
}

type Handler struct {
	claim     *usecase.ClaimUsecase
	word      *usecase.WordUsecase
	admin     *usecase.AdminUsecase
	signal    ClaimStreamer
	adminAuth *middleware.AdminAuth
	purchases echo.MiddlewareFunc
	reads     echo.MiddlewareFunc
}

func NewHandler(
	claim *usecase.ClaimUsecase,
	word *usecase.WordUsecase,
	admin *usecase.AdminUsecase,
	signal ClaimStreamer,
	adminAuth *middleware.AdminAuth,
	purchaseLimit echo.MiddlewareFunc,
	readLimit echo.MiddlewareFunc,
) *Handler {
	return &Handler{
		claim:     claim,
		word:      word,
		admin:     admin,
		signal:    signal,
		adminAuth: adminAuth,
		purchases: purchaseLimit,
		reads:     readLimit,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/words/:text", h.handleGetWord, h.reads)
	e.GET("/api/v1/words/:text/availability", h.handleAvailability, h.reads)
	e.POST("/api/v1/words/:text", h.handleCreateWord, h.purchases)
	e.POST("/api/v1/purchase/:text", h.handlePurchase, h.purchases)
	e.GET("/api/v1/transactions/recent", h.handleRecent, h.reads)
	e.POST("/api/v1/admin/words/:text/reset", h.handleAdminReset, h.adminAuth.Require)
	e.POST("/api/v1/admin/words/:text/moderation", h.handleModeration, h.adminAuth.Require)
	e.GET("/api/v1/admin/stats", h.handleStats, h.adminAuth.Require)
	e.GET("/realtime", h.handleRealtime)
}

// purchaseRequest is the statically validated claim payload. ExpectedPrice
// is the quote the buyer saw; the confirmed amount comes from the payment
// gate via PaymentReference.
type purchaseRequest struct {
	BuyerName        string          `json:"buyerName"`
	BuyerMessage     string          `json:"buyerMessage"`
	ExpectedPrice    decimal.Decimal `json:"expectedPrice"`
	PaymentReference string          `json:"paymentReference"`
}

type purchaseResponse struct {
	Word        domain.WordState         `json:"word"`
	Transaction domain.TransactionRecord `json:"transaction"`
}

func (h *Handler) handlePurchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.PaymentReference == "" {
		return presenter.BadRequestMessage(c, "paymentReference is required")
	}

	state, record, err := h.claim.Purchase(ctx, usecase.PurchaseInput{
		Word:             c.Param("text"),
		BuyerName:        req.BuyerName,
		BuyerMessage:     req.BuyerMessage,
		ExpectedPrice:    req.ExpectedPrice,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		if err == usecase.ErrPaymentReferenceMismatch {
			return presenter.BadRequest(c, err)
		}
		return presenter.Error(c, err)
	}

	return presenter.OK(c, purchaseResponse{Word: state, Transaction: record})
}

func (h *Handler) handleCreateWord(c echo.Context) error {
	ctx := c.Request().Context()

	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.PaymentReference == "" {
		return presenter.BadRequestMessage(c, "paymentReference is required")
	}

	state, record, err := h.claim.Purchase(ctx, usecase.PurchaseInput{
		Word:             c.Param("text"),
		BuyerName:        req.BuyerName,
		BuyerMessage:     req.BuyerMessage,
		ExpectedPrice:    req.ExpectedPrice,
		PaymentReference: req.PaymentReference,
		IsNewWord:        true,
	})
	if err != nil {
		if err == usecase.ErrPaymentReferenceMismatch {
			return presenter.BadRequest(c, err)
		}
		return presenter.Error(c, err)
	}

	return presenter.Created(c, purchaseResponse{Word: state, Transaction: record})
}

func (h *Handler) handleGetWord(c echo.Context) error {
	ctx := c.Request().Context()

	viewerHash := ""
	if ip := c.RealIP(); ip != "" {
		viewerHash = fmt.Sprintf("%016x", xxh3.HashString(ip))
	}

	detail, err := h.word.Get(ctx, c.Param("text"), viewerHash)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, detail)
}

func (h *Handler) handleAvailability(c echo.Context) error {
	ctx := c.Request().Context()

	state, available, err := h.word.Availability(ctx, c.Param("text"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{
		"text":      state.Text,
		"price":     state.Price,
		"available": available,
	})
}

func (h *Handler) handleRecent(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit")
		}
		limit = parsed
	}

	records, err := h.word.Recent(ctx, limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, records)
}

type adminResetRequest struct {
	Price        decimal.Decimal `json:"price"`
	OwnerName    *string         `json:"ownerName"`
	OwnerMessage *string         `json:"ownerMessage"`
}

func (h *Handler) handleAdminReset(c echo.Context) error {
	ctx := c.Request().Context()

	var req adminResetRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	state, record, err := h.admin.Reset(ctx, usecase.ResetInput{
		Word:         c.Param("text"),
		NewPrice:     req.Price,
		OwnerName:    req.OwnerName,
		OwnerMessage: req.OwnerMessage,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, purchaseResponse{Word: state, Transaction: record})
}

type moderationRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleModeration(c echo.Context) error {
	ctx := c.Request().Context()

	var req moderationRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	state, err := h.admin.SetModeration(ctx, c.Param("text"), domain.ModerationStatus(req.Status))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, state)
}

func (h *Handler) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.admin.Stats(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// realtimeRequest is the client-side protocol of the claim feed: "listen"
// replaces the word-prefix filter, "h" is a heartbeat.
type realtimeRequest struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan domain.ClaimEvent)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Prefixes:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("socket subscribe: %s", req.Prefixes),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
