package manga

import (
	"errors"
	"net/http"
	"strconv"

	"toonlord/internal/api"
	"toonlord/internal/auth"
	"toonlord/internal/logger"
	"toonlord/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createMangaRequest struct {
	Title       string   `json:"title" binding:"required"`
	Author      string   `json:"author"`
	Artist      string   `json:"artist"`
	Description string   `json:"description" binding:"required"`
	CoverImage  string   `json:"cover_image" binding:"required"`
	IsAdult     bool     `json:"is_adult"`
	IsPremium   bool     `json:"is_premium"`
	Price       int64    `json:"price" binding:"gte=0"`
	Status      string   `json:"status" binding:"omitempty,oneof=ongoing completed hiatus cancelled"`
	Tags        []string `json:"tags"`
}

// @Summary      Create a manga series
// @Tags         manga
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body manga.createMangaRequest true "Series details"
// @Success      201 {object} manga.Manga
// @Failure      400 {object} api.ErrorResponse
// @Router       /manga [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req createMangaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}
	if req.IsPremium && req.Price <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "premium series need a positive price"})
		return
	}

	status := req.Status
	if status == "" {
		status = StatusOngoing
	}

	created, err := h.repo.Create(c.Request.Context(), &Manga{
		Title:       req.Title,
		Author:      req.Author,
		Artist:      req.Artist,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		UploaderID:  userID,
		IsAdult:     req.IsAdult,
		IsPremium:   req.IsPremium,
		Price:       req.Price,
		Status:      status,
		Tags:        req.Tags,
	})
	if err != nil {
		logger.Errorf("failed to create manga: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create manga"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      List the catalog
// @Tags         manga
// @Produce      json
// @Param        search query string false "Title or author search"
// @Param        tag query string false "Tag filter"
// @Param        status query string false "Status filter"
// @Param        premium query bool false "Premium only"
// @Param        limit query int false "Page size" default(20)
// @Param        offset query int false "Page offset" default(0)
// @Success      200 {array} manga.Manga
// @Router       /manga [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	mangas, err := h.repo.List(c.Request.Context(), ListFilter{
		Search:      c.Query("search"),
		Tag:         c.Query("tag"),
		Status:      c.Query("status"),
		PremiumOnly: c.Query("premium") == "true",
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		logger.Errorf("failed to list mangas: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list mangas"})
		return
	}

	c.JSON(http.StatusOK, mangas)
}

// @Summary      Get a manga
// @Tags         manga
// @Produce      json
// @Param        mangaID path int true "Manga ID"
// @Success      200 {object} manga.Manga
// @Failure      404 {object} api.ErrorResponse
// @Router       /manga/{mangaID} [get]
func (h *Handler) Get(c *gin.Context) {
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}

	m, err := h.repo.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
		return
	}
	if err != nil {
		logger.Errorf("failed to load manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load manga"})
		return
	}

	// A detail view counts as a read.
	if err := h.repo.IncrementViews(c.Request.Context(), mangaID); err != nil {
		logger.Warnf("failed to count view for manga %d: %v", mangaID, err)
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      List own series
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} manga.Manga
// @Router       /creator/manga [get]
func (h *Handler) ListOwn(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	mangas, err := h.repo.ListByUploader(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("failed to list manga for uploader %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list mangas"})
		return
	}

	c.JSON(http.StatusOK, mangas)
}

// @Summary      Update a manga
// @Tags         manga
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Param        request body manga.createMangaRequest true "Series details"
// @Success      200 {object} manga.Manga
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /manga/{mangaID} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
		return
	}
	if err != nil {
		logger.Errorf("failed to load manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load manga"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if existing.UploaderID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the uploader can edit this series"})
		return
	}

	var req createMangaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.BindError(err)})
		return
	}
	if req.IsPremium && req.Price <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "premium series need a positive price"})
		return
	}

	existing.Title = req.Title
	existing.Author = req.Author
	existing.Artist = req.Artist
	existing.Description = req.Description
	existing.CoverImage = req.CoverImage
	existing.IsAdult = req.IsAdult
	existing.IsPremium = req.IsPremium
	existing.Price = req.Price
	if req.Status != "" {
		existing.Status = req.Status
	}
	existing.Tags = req.Tags

	updated, err := h.repo.Update(c.Request.Context(), existing)
	if err != nil {
		logger.Errorf("failed to update manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update manga"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete a manga
// @Tags         manga
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /manga/{mangaID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load manga"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if existing.UploaderID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the uploader can delete this series"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), mangaID); err != nil {
		logger.Errorf("failed to delete manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete manga"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "manga deleted"})
}
