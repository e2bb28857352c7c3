package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/lifecycle"
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
)

// Handlers exposes the view lifecycle over HTTP for the host UI.
type Handlers struct {
	views    *lifecycle.Service
	profiles *profile.Registry
	log      *logging.Logger
}

// NewHandlers creates the command-surface handlers.
func NewHandlers(views *lifecycle.Service, profiles *profile.Registry, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{views: views, profiles: profiles, log: log.Named("api")}
}

// fail writes an ok:false envelope with the status the error maps to.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, lifecycle.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request: " + err.Error()})
}

// CreateView creates a view and starts loading it. With wait=true the
// response is delayed until the load protocol settles.
func (h *Handlers) CreateView(c *gin.Context) {
	var req struct {
		ID   string `json:"id" binding:"required"`
		URL  string `json:"url"`
		Wait bool   `json:"wait"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.views.Create(req.ID, req.URL); err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"ok": true, "id": req.ID}
	if req.Wait {
		if err := h.views.WaitLoad(c.Request.Context(), req.ID); err != nil {
			resp["load_error"] = err.Error()
		}
	}
	if snap, err := h.views.Snapshot(req.ID); err == nil {
		resp["view"] = snap
	}
	c.JSON(http.StatusOK, resp)
}

// ShowView applies bounds and brings the view to the front.
func (h *Handlers) ShowView(c *gin.Context) {
	var req struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width" binding:"required"`
		Height int `json:"height" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	b := types.Bounds{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	if err := h.views.Show(id, b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HideView hides one view.
func (h *Handlers) HideView(c *gin.Context) {
	if err := h.views.Hide(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HideAll hides every view.
func (h *Handlers) HideAll(c *gin.Context) {
	h.views.HideAll()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DestroyView tears a view down. Destroying an absent id succeeds.
func (h *Handlers) DestroyView(c *gin.Context) {
	if err := h.views.Destroy(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ReloadView restarts the load protocol, optionally with an override
// URL and optionally waiting for the outcome.
func (h *Handlers) ReloadView(c *gin.Context) {
	var req struct {
		URL  string `json:"url"`
		Wait bool   `json:"wait"`
	}
	// Body is optional for a plain reload.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	id := c.Param("id")
	if err := h.views.Reload(id, req.URL); err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"ok": true}
	if req.Wait {
		if err := h.views.WaitLoad(c.Request.Context(), id); err != nil {
			resp["load_error"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetURL returns the view's committed URL. While no commit is in
// effect (load in flight, failed, or never started) the url field is
// omitted and loaded is false.
func (h *Handlers) GetURL(c *gin.Context) {
	url, loaded, err := h.views.CurrentURL(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"ok": true, "loaded": loaded}
	if loaded {
		resp["url"] = url
	}
	c.JSON(http.StatusOK, resp)
}

// GetContentID returns the view's surface identifier.
func (h *Handlers) GetContentID(c *gin.Context) {
	id, err := h.views.ContentID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "content_id": id})
}

// SetLinkPolicy overrides or clears the view's navigation policy.
func (h *Handlers) SetLinkPolicy(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		OpenExternally *bool `json:"open_externally"`
		Clear          bool  `json:"clear"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	if body.Clear {
		if err := h.views.ClearLinkPolicy(id); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if body.OpenExternally == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "open_externally or clear is required"})
		return
	}
	if err := h.views.SetLinkPolicy(id, *body.OpenExternally); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListViews returns snapshots of every view plus registry stats.
func (h *Handlers) ListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"views": h.views.List(),
		"stats": h.views.Stats(),
	})
}

// GetView returns one view snapshot.
func (h *Handlers) GetView(c *gin.Context) {
	snap, err := h.views.Snapshot(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": snap})
}

// ComputeBounds returns the content rectangle for the given container
// and chrome dimensions.
func (h *Handlers) ComputeBounds(c *gin.Context) {
	var req struct {
		ContainerWidth  int `json:"container_width" binding:"required"`
		ContainerHeight int `json:"container_height" binding:"required"`
		SidebarWidth    int `json:"sidebar_width"`
		TopNavHeight    int `json:"top_nav_height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b := lifecycle.ComputeBounds(req.ContainerWidth, req.ContainerHeight, req.SidebarWidth, req.TopNavHeight)
	c.JSON(http.StatusOK, gin.H{"ok": true, "bounds": b})
}

// ListProfiles returns the registered profile catalog.
func (h *Handlers) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "profiles": h.profiles.All()})
}

// GetProfile returns one profile.
func (h *Handlers) GetProfile(c *gin.Context) {
	p, ok := h.profiles.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}
