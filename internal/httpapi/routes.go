package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/htxzdfunny/drawful-web/internal/game"
)

// Handler serves the REST surface: room creation/inspection, word
// sampling and the token-gated admin overrides.
type Handler struct {
	reg       *game.Registry
	words     *game.WordBank
	evilToken string
}

func NewHandler(reg *game.Registry, words *game.WordBank, evilToken string) *Handler {
	return &Handler{reg: reg, words: words, evilToken: evilToken}
}

func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.health)
	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:code", h.getRoom)
	api.GET("/words", h.getWords)

	evil := api.Group("/__evil__", h.evilAuth)
	evil.GET("/rooms", h.evilRooms)
	evil.POST("/rooms/:code/override", h.evilOverride)
}

func (h *Handler) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type createRoomRequest struct {
	RoundDurationSec int `json:"roundDurationSec"`
}

// createRoom makes a room not yet bound to a socket; the first joining
// connection adopts ownership.
func (h *Handler) createRoom(ctx *gin.Context) {
	var req createRoomRequest
	_ = ctx.ShouldBindJSON(&req)

	code := h.reg.CreateRoom("rest", req.RoundDurationSec)
	ctx.JSON(http.StatusOK, gin.H{"roomCode": code})
}

func (h *Handler) getRoom(ctx *gin.Context) {
	st, err := h.reg.PublicState(ctx.Param("code"), "")
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": game.ErrRoomNotFound.Error()})
		return
	}
	ctx.JSON(http.StatusOK, st)
}

func (h *Handler) getWords(ctx *gin.Context) {
	count := 3
	if n, err := intQuery(ctx, "count"); err == nil {
		count = n
	}

	var custom []string
	if raw := ctx.Query("custom"); raw != "" {
		for _, w := range strings.Split(raw, ",") {
			if w = strings.TrimSpace(w); w != "" {
				custom = append(custom, w)
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"words": h.words.PickWordChoices(count, custom)})
}

func intQuery(ctx *gin.Context, key string) (int, error) {
	return strconv.Atoi(ctx.Query(key))
}

// evilAuth gates the override surface on the shared secret. An unset
// token disables the surface entirely.
func (h *Handler) evilAuth(ctx *gin.Context) {
	if h.evilToken == "" || ctx.GetHeader("X-Evil-Token") != h.evilToken {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx.Next()
}

func (h *Handler) evilRooms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": h.reg.AdminRoomStates()})
}

type overrideRequest struct {
	NextWord     *string        `json:"nextWord"`
	NextDrawerID *string        `json:"nextDrawerId"`
	Scores       map[string]int `json:"scores"`
}

func (h *Handler) evilOverride(ctx *gin.Context) {
	code := ctx.Param("code")

	var req overrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": game.ErrInvalidPayload.Error()})
		return
	}

	ov := game.Override{Scores: req.Scores}
	if req.NextWord != nil {
		trimmed := strings.TrimSpace(*req.NextWord)
		ov.NextWord = &trimmed
	}
	if req.NextDrawerID != nil {
		trimmed := strings.TrimSpace(*req.NextDrawerID)
		ov.NextDrawerID = &trimmed
	}

	if err := h.reg.AdminOverride(code, ov); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	st, _ := h.reg.PublicState(code, "")
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "room": st})
}
