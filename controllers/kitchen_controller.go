package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/canteenhq/canteen-api/config"
	"github.com/canteenhq/canteen-api/models"
	"github.com/canteenhq/canteen-api/services"
	"github.com/gin-gonic/gin"
)

// kitchenBoards holds one lap board per terminal session. Boards are
// process-local and unsynchronized across terminals: two kitchen displays may
// legitimately disagree about batch boundaries.
var kitchenBoards = services.NewBoardRegistry()

// ResetKitchenBoards replaces the board registry (used by tests)
func ResetKitchenBoards() {
	kitchenBoards = services.NewBoardRegistry()
}

// terminalSession extracts the X-Terminal-Session header identifying the lap
// board owner
func terminalSession(c *gin.Context) (string, bool) {
	session := c.GetHeader("X-Terminal-Session")
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "X-Terminal-Session header is required",
			},
		})
		return "", false
	}
	return session, true
}

// kitchenActiveOrders loads the kitchen's active set: preparing orders,
// oldest first, items included
func kitchenActiveOrders(c *gin.Context) ([]models.Order, bool) {
	var orders []models.Order
	err := config.GetDB().
		Preload("Items").
		Where("status = ?", models.StatusPreparing).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load kitchen orders",
			},
		})
		return nil, false
	}
	return orders, true
}

// lapView is one declared lap with its live contents
type lapView struct {
	Number     int                  `json:"number"`
	DeclaredAt time.Time            `json:"declared_at"`
	MemberIDs  []uint               `json:"member_order_ids"`
	Items      []services.ItemCount `json:"items"`
	Completed  bool                 `json:"completed"`
}

// GetKitchenBoard handles GET /api/v1/staff/kitchen/board - the kitchen
// terminal's full view: unbatched items plus every declared lap recomputed
// against the live order set
func GetKitchenBoard(c *gin.Context) {
	session, ok := terminalSession(c)
	if !ok {
		return
	}
	active, ok := kitchenActiveOrders(c)
	if !ok {
		return
	}

	laps := kitchenBoards.Board(session).Laps()

	views := make([]lapView, len(laps))
	for i, lap := range laps {
		items := services.LapItems(lap, active)
		views[i] = lapView{
			Number:     lap.Number,
			DeclaredAt: lap.DeclaredAt,
			MemberIDs:  lap.MemberOrderIDs,
			Items:      items,
			Completed:  len(items) == 0,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"current_items": services.CurrentItems(active, laps),
			"laps":          views,
		},
	})
}

// DeclareKitchenLap handles POST /api/v1/staff/kitchen/laps - snapshot the
// currently unbatched orders into the terminal's next production batch
func DeclareKitchenLap(c *gin.Context) {
	session, ok := terminalSession(c)
	if !ok {
		return
	}
	active, ok := kitchenActiveOrders(c)
	if !ok {
		return
	}

	lap, err := kitchenBoards.Board(session).Declare(active)
	if err != nil {
		if errors.Is(err, services.ErrEmptyLap) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_LAP",
					"message": "No unbatched orders to declare a lap for",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to declare lap",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"lap":   lap,
			"items": services.LapItems(lap, active),
		},
	})
}
