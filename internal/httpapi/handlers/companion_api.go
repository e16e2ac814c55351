package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/suPer8Hu/companion-studio/internal/common"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/companionform"
	"github.com/suPer8Hu/companion-studio/internal/httpapi/middleware"
	"go.uber.org/zap"
)

type categoryResp struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Companions int64  `json:"companions"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	cats, err := h.Loader.Categories(ctx)
	if err != nil {
		h.Log.Error("list categories", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list categories")
		return
	}

	counts := map[string]int64{}
	if h.Counts != nil {
		if m, err := h.Counts.CategoryCounts(ctx); err == nil {
			counts = m
		} else {
			h.Log.Warn("category counts unavailable", zap.Error(err))
		}
	}

	ok(c, gin.H{
		"categories": lo.Map(cats, func(cat companion.Category, _ int) categoryResp {
			return categoryResp{ID: cat.ID, Name: cat.Name, Companions: counts[cat.ID]}
		}),
	})
}

// GetCompanionForm returns the initial form state for the given id.
func (h *Handler) GetCompanionForm(c *gin.Context) {
	existing, cats, err := h.Loader.Load(c.Request.Context(), c.Param("companion_id"))
	if err != nil {
		h.Log.Error("load companion form", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load companion")
		return
	}

	form := h.newForm()
	form.Initialize(existing, cats)
	ok(c, form.State())
}

func (h *Handler) CreateCompanion(c *gin.Context) {
	var req companion.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	form := h.newForm()
	form.Initialize(nil, nil)
	form.SetFields(req)
	h.submit(c, form)
}

type patchCompanionReq struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Instructions *string `json:"instructions"`
	Seed         *string `json:"seed"`
	Src          *string `json:"src"`
	CategoryID   *string `json:"categoryId"`
}

func (r patchCompanionReq) values() map[companionform.Field]*string {
	return map[companionform.Field]*string{
		companionform.FieldName:         r.Name,
		companionform.FieldDescription:  r.Description,
		companionform.FieldInstructions: r.Instructions,
		companionform.FieldSeed:         r.Seed,
		companionform.FieldSrc:          r.Src,
		companionform.FieldCategoryID:   r.CategoryID,
	}
}

// UpdateCompanion applies the fields present in the body on top of the
// stored companion.
func (h *Handler) UpdateCompanion(c *gin.Context) {
	var req patchCompanionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	existing, cats, err := h.Loader.Load(c.Request.Context(), c.Param("companion_id"))
	if err != nil {
		h.Log.Error("load companion for update", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load companion")
		return
	}
	if existing == nil {
		common.Fail(c, http.StatusNotFound, 40401, "companion not found")
		return
	}

	form := h.newForm()
	form.Initialize(existing, cats)
	for f, v := range req.values() {
		if v != nil {
			_ = form.SetField(f, *v)
		}
	}
	h.submit(c, form)
}

func (h *Handler) submit(c *gin.Context, form *companionform.Controller) {
	saved, err := form.Submit(c.Request.Context())
	if err == nil {
		ok(c, gin.H{"companion": saved})
		return
	}

	var verrs companionform.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		common.FailWithData(c, http.StatusUnprocessableEntity, 42201, "validation failed", gin.H{"errors": verrs})
	case errors.Is(err, companion.ErrCategoryNotFound):
		common.FailWithData(c, http.StatusUnprocessableEntity, 42202, "category not found", gin.H{
			"errors": companionform.ValidationErrors{{Field: companionform.FieldCategoryID, Message: "Category no longer exists"}},
		})
	case errors.Is(err, companion.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "companion not found")
	default:
		h.Log.Error("submit companion",
			zap.String("companion_id", form.CompanionID()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		common.Fail(c, http.StatusInternalServerError, 50001, noticeFailed)
	}
}

func ok(c *gin.Context, data any) {
	common.OK(c, data)
}
