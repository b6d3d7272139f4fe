package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/layouts"
	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/seating"
)

// RoomHandler serves exam room management and layout previews.
type RoomHandler struct {
	Rooms   RoomStore
	Layouts []layouts.Template
	Cache   CachePurger
	Log     *zap.Logger
}

func NewRoomHandler(rooms RoomStore, templates []layouts.Template, cache CachePurger, log *zap.Logger) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Layouts: templates, Cache: cache, Log: log.Named("rooms")}
}

type layoutSeatReq struct {
	GridRow    int `json:"gridRow" validate:"gte=1"`
	GridCol    int `json:"gridCol" validate:"gte=1"`
	SeatNumber int `json:"seatNumber" validate:"gte=1"`
}

type roomReq struct {
	Name        string  `json:"name" validate:"required,notblank,max=100"`
	RoomNumber  string  `json:"room_number" validate:"required,notblank,max=50"`
	TotalSeats  *int    `json:"total_seats" validate:"omitempty,gte=0"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	SeatPattern struct {
		Type         string          `json:"type" validate:"required,oneof=grid custom custom_layout"`
		Rows         int             `json:"rows" validate:"gte=0,lte=200"`
		Cols         int             `json:"cols" validate:"gte=0,lte=200"`
		CustomLayout []layoutSeatReq `json:"customLayout" validate:"dive"`
	} `json:"seat_pattern"`
	TemplateID string `json:"template_id"`
}

// toRoom builds the room and checks its geometry.  Total seats default to
// what the pattern defines.
func (req roomReq) toRoom(id string) (model.ExamRoom, error) {
	p := model.SeatPattern{Type: req.SeatPattern.Type, Rows: req.SeatPattern.Rows, Cols: req.SeatPattern.Cols}
	for _, s := range req.SeatPattern.CustomLayout {
		p.CustomLayout = append(p.CustomLayout, model.LayoutSeat{GridRow: s.GridRow, GridCol: s.GridCol, SeatNumber: s.SeatNumber})
	}
	room := model.ExamRoom{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		RoomNumber:  strings.TrimSpace(req.RoomNumber),
		SeatPattern: p,
		Description: req.Description,
	}
	switch {
	case req.TotalSeats != nil:
		room.TotalSeats = *req.TotalSeats
	case p.IsCustom():
		room.TotalSeats = len(p.CustomLayout)
	default:
		room.TotalSeats = p.Rows * p.Cols
	}
	_, err := room.Geometry()
	return room, err
}

func geometryResponse(c echo.Context, err error) error {
	var gerr *seating.GeometryError
	if errors.As(err, &gerr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid room layout", "reason": gerr.Reason})
	}
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid room layout"})
}

// List returns every room.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		h.Log.Error("list rooms", zap.Error(err))
		return serverError(c, "list rooms failed")
	}
	if rooms == nil {
		rooms = []*model.ExamRoom{}
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Get returns one room.
func (h *RoomHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	room, err := h.Rooms.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return notFound(c, "room")
		}
		return serverError(c, "load room failed")
	}
	return c.JSON(http.StatusOK, room)
}

// Create stores a new room.  With template_id set the template's layout
// is used and seat_pattern in the body is ignored.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TemplateID != "" {
		tpl, ok := h.template(req.TemplateID)
		if !ok {
			return notFound(c, "template")
		}
		tr := tpl.Room()
		req.SeatPattern.Type = tr.SeatPattern.Type
		req.SeatPattern.Rows, req.SeatPattern.Cols = tr.SeatPattern.Rows, tr.SeatPattern.Cols
		req.SeatPattern.CustomLayout = nil
		for _, s := range tr.SeatPattern.CustomLayout {
			req.SeatPattern.CustomLayout = append(req.SeatPattern.CustomLayout, layoutSeatReq(s))
		}
		req.TotalSeats = nil // derived from the template layout
		if req.Description == nil {
			req.Description = tr.Description
		}
	}
	if ok, err := validateReq(c, &req); !ok {
		return err
	}
	room, err := req.toRoom("")
	if err != nil {
		return geometryResponse(c, err)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Rooms.Create(ctx, &room); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists"})
		}
		h.Log.Error("create room", zap.Error(err))
		return serverError(c, "create room failed")
	}
	purgeCache(ctx, h.Cache, h.Log) // dashboard counts rooms
	h.Log.Info("room created", zap.String("room_id", room.ID), zap.Int("seats", room.TotalSeats))
	return c.JSON(http.StatusCreated, room)
}

// Update replaces a room's fields.
func (h *RoomHandler) Update(c echo.Context) error {
	var req roomReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	room, err := req.toRoom(c.Param("id"))
	if err != nil {
		return geometryResponse(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Rooms.Update(ctx, &room); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return notFound(c, "room")
		}
		return serverError(c, "update room failed")
	}
	purgeCache(ctx, h.Cache, h.Log) // capacity feeds room usage
	return c.JSON(http.StatusOK, room)
}

// Delete removes a room that no plan uses.
func (h *RoomHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	switch err := h.Rooms.Delete(ctx, c.Param("id")); {
	case err == nil:
		purgeCache(ctx, h.Cache, h.Log)
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrRoomNotFound):
		return notFound(c, "room")
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is used by seating plans"})
	default:
		return serverError(c, "delete room failed")
	}
}

type layoutCell struct {
	SeatNumber int    `json:"seat_number"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Label      string `json:"label"`
}

// Layout returns the room's seats in reading order with grid bounds for
// drawing.
func (h *RoomHandler) Layout(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	room, err := h.Rooms.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return notFound(c, "room")
		}
		return serverError(c, "load room failed")
	}
	g, err := room.Geometry()
	if err != nil {
		return geometryResponse(c, err)
	}
	rows, cols := g.MaxGridDimensions()
	seats := seating.Arrange(g, nil, seating.Horizontal) // empty arrangement: reading order only
	cells := make([]layoutCell, len(seats))
	for i, s := range seats {
		cells[i] = layoutCell{SeatNumber: s.LocalIndex, Row: s.Row, Col: s.Col, Label: seatLabel(s.Row, s.Col)}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":     room.ID,
		"name":        room.Name,
		"total_seats": room.TotalSeats,
		"grid_rows":   rows,
		"grid_cols":   cols,
		"seats":       cells,
	})
}

type templateResp struct {
	layouts.Template
	TotalSeats  int               `json:"total_seats"`
	SeatPattern model.SeatPattern `json:"seat_pattern"`
}

// Templates lists the predefined layouts.
func (h *RoomHandler) Templates(c echo.Context) error {
	out := make([]templateResp, len(h.Layouts))
	for i, t := range h.Layouts {
		out[i] = templateResp{Template: t, TotalSeats: t.TotalSeats(), SeatPattern: t.Room().SeatPattern}
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": out})
}

func (h *RoomHandler) template(id string) (layouts.Template, bool) {
	for _, t := range h.Layouts {
		if t.ID == id {
			return t, true
		}
	}
	return layouts.Template{}, false
}
