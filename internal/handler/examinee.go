package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/sheet"
)

const maxImportBytes = 10 << 20

// ExamineeHandler lists and imports examinees.
type ExamineeHandler struct {
	Examinees ExamineeStore
	Cache     CachePurger
	Log       *zap.Logger
}

func NewExamineeHandler(s ExamineeStore, cache CachePurger, log *zap.Logger) *ExamineeHandler {
	return &ExamineeHandler{Examinees: s, Cache: cache, Log: log.Named("examinees")}
}

// List pages through examinees in id order: ?limit=&offset=.
func (h *ExamineeHandler) List(c echo.Context) error {
	limit := min(queryInt(c, "limit", 100), 1000)
	offset := queryInt(c, "offset", 0)

	ctx, cancel := requestCtx(c)
	defer cancel()
	es, err := h.Examinees.List(ctx, limit, offset)
	if err != nil {
		h.Log.Error("list examinees", zap.Error(err))
		return serverError(c, "list examinees failed")
	}
	total, err := h.Examinees.Count(ctx)
	if err != nil {
		return serverError(c, "count examinees failed")
	}
	if es == nil {
		es = []model.Examinee{}
	}
	return c.JSON(http.StatusOK, echo.Map{"examinees": es, "total": total, "limit": limit, "offset": offset})
}

// Import reads an xlsx upload (form field "file") and stores every row.
// The import is all or nothing.
func (h *ExamineeHandler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file not found in request"})
	}
	if fh.Size > maxImportBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read file"})
	}
	defer f.Close()

	es, err := sheet.ParseExaminees(f)
	if err != nil {
		var rerr *sheet.RowError
		if errors.As(err, &rerr) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": rerr.Reason, "row": rerr.Row})
		}
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	if len(es) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no examinees in file"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	n, err := h.Examinees.CreateBulk(ctx, es)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateExaminee) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		h.Log.Error("import examinees", zap.Error(err))
		return serverError(c, "import failed")
	}
	purgeCache(ctx, h.Cache, h.Log)
	h.Log.Info("examinees imported", zap.Int("count", n), zap.String("file", fh.Filename))
	return c.JSON(http.StatusCreated, echo.Map{"imported": n})
}
