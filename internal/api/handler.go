package api

import (
	"context"
	"net/http"
	"time"

	"tickerdash/internal/market"
	"tickerdash/internal/prefs"
	"tickerdash/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Feed is the read and switch surface of the active-pair session.
type Feed interface {
	Select(pair market.Pair)
	Pair() (market.Pair, bool)
	Frame() session.Frame
}

type PrefStore interface {
	Get() prefs.Preferences
	SetSymbol(symbol string) error
	SetHideInfo(hide bool) error
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

const healthTimeout = 2 * time.Second

type Handler struct {
	feed      Feed
	catalog   *market.Catalog
	prefs     PrefStore
	archive   HealthChecker
	labelStep int
	logger    *zap.Logger
}

func NewHandler(feed Feed, catalog *market.Catalog, store PrefStore, labelStep int, logger *zap.Logger) *Handler {
	return &Handler{
		feed:      feed,
		catalog:   catalog,
		prefs:     store,
		labelStep: labelStep,
		logger:    logger,
	}
}

// WithArchive makes Healthz report the candle archive as well.
func (h *Handler) WithArchive(archive HealthChecker) *Handler {
	h.archive = archive
	return h
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if !h.archive.IsHealthy(ctx) {
		h.logger.Warn("candle archive unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "archive": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "archive": "up"})
}

// Symbols lists the selectable pairs and the active one.
func (h *Handler) Symbols(c *gin.Context) {
	pairs := h.catalog.All()
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.String()
	}

	view := SymbolsView{Symbols: names}
	if p, ok := h.feed.Pair(); ok {
		view.Selected = p.String()
	}
	c.JSON(http.StatusOK, view)
}

// Dashboard returns one consistent frame of everything on screen.
func (h *Handler) Dashboard(c *gin.Context) {
	p := h.prefs.Get()
	frame := h.feed.Frame()
	view := DashboardView{
		HideInfo: p.HideInfo,
		Status:   frame.Status,
		Chart:    newChartView(frame.Candles, h.labelStep),
	}
	if frame.HasPair {
		view.Pair = frame.Pair.String()
	}

	if !p.HideInfo {
		if frame.HasTicker {
			view.Ticker = newTickerView(frame.Ticker)
		}
		view.Trades = tradeRows(frame.Trades)
		view.OrderBook = newOrderBookView(frame.OrderBook)
	}
	c.JSON(http.StatusOK, view)
}

type selectRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// SelectSymbol switches the active pair and remembers the choice.
func (h *Handler) SelectSymbol(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// unparsable names and unlisted pairs are both client errors
	pair, err := h.catalog.Lookup(req.Symbol)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.feed.Select(pair)
	if err := h.prefs.SetSymbol(pair.String()); err != nil {
		// the switch itself succeeded
		h.logger.Warn("symbol not persisted", zap.String("symbol", pair.String()), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"selected": pair.String()})
}

type hideInfoRequest struct {
	HideInfo *bool `json:"hide_info" binding:"required"`
}

func (h *Handler) SetHideInfo(c *gin.Context) {
	var req hideInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.prefs.SetHideInfo(*req.HideInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hide_info": *req.HideInfo})
}
