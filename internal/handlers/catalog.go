package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/modules/interview"
	"github.com/yungbote/carebridge-backend/internal/platform/apierr"
)

type CatalogHandler struct {
	store *catalog.Store
	uc    interview.Usecases
}

func NewCatalogHandler(store *catalog.Store, uc interview.Usecases) *CatalogHandler {
	return &CatalogHandler{store: store, uc: uc}
}

// GET /api/catalog
func (h *CatalogHandler) Hierarchy(c *gin.Context) {
	snap := h.store.Current()

	type termView struct {
		Name     string   `json:"name"`
		Keywords []string `json:"keywords"`
	}
	type dimensionView struct {
		Name  string     `json:"name"`
		Rank  int        `json:"rank"`
		Terms []termView `json:"terms"`
	}

	dims := snap.Dimensions()
	out := make([]dimensionView, 0, len(dims))
	for _, d := range dims {
		dv := dimensionView{Name: d.Name, Rank: d.Rank}
		for _, t := range d.Terms {
			dv.Terms = append(dv.Terms, termView{Name: t.Name, Keywords: t.Keywords})
		}
		out = append(out, dv)
	}
	RespondOK(c, gin.H{
		"dimensions": out,
		"questions":  snap.QuestionCount(),
	})
}

// POST /api/catalog/reload
func (h *CatalogHandler) Reload(c *gin.Context) {
	if err := h.store.Reload(); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, apierr.CodeBadRequest, err)
		return
	}
	if err := h.uc.ReindexCatalog(c.Request.Context()); err != nil {
		// The reload itself succeeded; semantic search just lags.
		RespondOK(c, gin.H{"reloaded": true, "reindexed": false, "reindex_error": err.Error()})
		return
	}
	RespondOK(c, gin.H{"reloaded": true, "reindexed": true})
}
