package chapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"toonlord/internal/api"
	"toonlord/internal/auth"
	"toonlord/internal/logger"
	"toonlord/internal/manga"
	"toonlord/internal/wallet"

	"github.com/gin-gonic/gin"
)

// pageBaseURL serves externally synced chapters whose pages are stored
// as filenames under a content hash.
const pageBaseURL = "https://uploads.mangadex.org/data"

// UnlockChecker reports whether a reader owns a premium series.
type UnlockChecker interface {
	HasUnlock(ctx context.Context, userID, mangaID int) (bool, error)
}

// Subscribers lists readers who subscribed to a series.
type Subscribers interface {
	ListSubscriberIDs(ctx context.Context, mangaID int) ([]int, error)
}

// Notifier delivers new-chapter notifications, fire-and-forget.
type Notifier interface {
	Notify(userID int, kind, message string, mangaID *int)
}

type Handler struct {
	chapters    *Repository
	mangas      *manga.Repository
	unlocks     UnlockChecker
	subscribers Subscribers
	notifier    Notifier
}

func NewHandler(chapters *Repository, mangas *manga.Repository, unlocks UnlockChecker, subscribers Subscribers, notifier Notifier) *Handler {
	return &Handler{
		chapters:    chapters,
		mangas:      mangas,
		unlocks:     unlocks,
		subscribers: subscribers,
		notifier:    notifier,
	}
}

// @Summary      List chapters of a manga
// @Description  Metadata only; page URLs require the content endpoint.
// @Tags         chapter
// @Produce      json
// @Param        mangaID path int true "Manga ID"
// @Success      200 {array} chapter.Chapter
// @Router       /manga/{mangaID}/chapters [get]
func (h *Handler) List(c *gin.Context) {
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}

	chapters, err := h.chapters.ListByManga(c.Request.Context(), mangaID)
	if err != nil {
		logger.Errorf("failed to list chapters for manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list chapters"})
		return
	}

	c.JSON(http.StatusOK, chapters)
}

// @Summary      Read a chapter
// @Description  Locked chapters come back with empty pages and
// @Description  is_locked set, never page URLs.
// @Tags         chapter
// @Produce      json
// @Param        mangaID path int true "Manga ID"
// @Param        chapterNum path int true "Chapter number"
// @Success      200 {object} chapter.ContentResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /manga/{mangaID}/chapters/{chapterNum} [get]
func (h *Handler) GetContent(c *gin.Context) {
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return
	}
	chapterNum, err := strconv.Atoi(c.Param("chapterNum"))
	if err != nil || chapterNum <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid chapter number"})
		return
	}

	m, err := h.mangas.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "content not found"})
		return
	}
	if err != nil {
		logger.Errorf("failed to load manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load content"})
		return
	}

	ch, err := h.chapters.GetByNumber(c.Request.Context(), mangaID, chapterNum)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "content not found"})
		return
	}
	if err != nil {
		logger.Errorf("failed to load chapter %d/%d: %v", mangaID, chapterNum, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load content"})
		return
	}

	userID, loggedIn := auth.GetUserID(c)
	owned := false
	if loggedIn && m.IsPremium {
		owned, err = h.unlocks.HasUnlock(c.Request.Context(), userID, mangaID)
		if err != nil {
			logger.Errorf("failed to check unlock for user %d manga %d: %v", userID, mangaID, err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load content"})
			return
		}
	}

	hasAccess := manga.HasAccess(userID, loggedIn, m, owned, chapterNum)

	resp := ContentResponse{Chapter: *ch, IsLocked: !hasAccess}
	if hasAccess {
		resp.Pages = pageURLs(ch)
	} else {
		resp.Pages = []string{}
	}

	c.JSON(http.StatusOK, resp)
}

// pageURLs resolves stored page references. Synced chapters keep bare
// filenames plus a hash; uploaded chapters store full URLs.
func pageURLs(ch *Chapter) []string {
	if ch.Hash == nil || *ch.Hash == "" {
		return ch.Pages
	}
	urls := make([]string, len(ch.Pages))
	for i, p := range ch.Pages {
		urls[i] = fmt.Sprintf("%s/%s/%s", pageBaseURL, *ch.Hash, p)
	}
	return urls
}

type uploadChapterRequest struct {
	ChapterNumber int      `json:"chapter_number" binding:"required,gt=0"`
	Title         string   `json:"title"`
	Pages         []string `json:"pages" binding:"required,min=1"`
}

// @Summary      Upload a chapter
// @Tags         chapter
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Param        request body chapter.uploadChapterRequest true "Chapter pages"
// @Success      201 {object} chapter.Chapter
// @Failure      403 {object} api.ErrorResponse
// @Router       /manga/{mangaID}/chapters [post]
func (h *Handler) Upload(c *gin.Context) {
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

	var req uploadChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "chapter_number and at least one page are required"})
		return
	}

	m, err := h.mangas.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load manga"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if m.UploaderID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the uploader can add chapters"})
		return
	}

	created, err := h.chapters.Create(c.Request.Context(), &Chapter{
		MangaID:       mangaID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Pages:         req.Pages,
	})
	if err != nil {
		logger.Errorf("failed to create chapter for manga %d: %v", mangaID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create chapter"})
		return
	}

	if err := h.mangas.AdjustChapterCount(c.Request.Context(), mangaID, 1); err != nil {
		logger.Warnf("failed to bump chapter count for manga %d: %v", mangaID, err)
	}

	h.notifySubscribers(c.Request.Context(), m, created)

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) notifySubscribers(ctx context.Context, m *manga.Manga, ch *Chapter) {
	if h.subscribers == nil || h.notifier == nil {
		return
	}
	ids, err := h.subscribers.ListSubscriberIDs(ctx, m.ID)
	if err != nil {
		logger.Warnf("failed to list subscribers for manga %d: %v", m.ID, err)
		return
	}
	msg := fmt.Sprintf("New Chapter: Ch. %d of %s is now available!", ch.ChapterNumber, m.Title)
	for _, id := range ids {
		h.notifier.Notify(id, "chapter_uploaded", msg, &m.ID)
	}
}

type editChapterRequest struct {
	ChapterNumber int    `json:"chapter_number" binding:"required,gt=0"`
	Title         string `json:"title"`
}

// @Summary      Edit a chapter
// @Tags         chapter
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Param        chapterID path int true "Chapter ID"
// @Param        request body chapter.editChapterRequest true "New number and title"
// @Success      200 {object} chapter.Chapter
// @Router       /manga/{mangaID}/chapters/{chapterID} [put]
func (h *Handler) Edit(c *gin.Context) {
	if !h.requireUploader(c) {
		return
	}
	chapterID, err := strconv.Atoi(c.Param("chapterID"))
	if err != nil || chapterID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid chapter ID"})
		return
	}

	var req editChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "chapter_number is required"})
		return
	}

	updated, err := h.chapters.Update(c.Request.Context(), chapterID, req.ChapterNumber, req.Title)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "chapter not found"})
		return
	}
	if err != nil {
		logger.Errorf("failed to update chapter %d: %v", chapterID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update chapter"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete a chapter
// @Tags         chapter
// @Produce      json
// @Security     BearerAuth
// @Param        mangaID path int true "Manga ID"
// @Param        chapterID path int true "Chapter ID"
// @Success      200 {object} api.MessageResponse
// @Router       /manga/{mangaID}/chapters/{chapterID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if !h.requireUploader(c) {
		return
	}
	mangaID, _ := strconv.Atoi(c.Param("mangaID"))
	chapterID, err := strconv.Atoi(c.Param("chapterID"))
	if err != nil || chapterID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid chapter ID"})
		return
	}

	if _, err := h.chapters.Delete(c.Request.Context(), chapterID); err != nil {
		if errors.Is(err, wallet.ErrContentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "chapter not found"})
			return
		}
		logger.Errorf("failed to delete chapter %d: %v", chapterID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete chapter"})
		return
	}

	if err := h.mangas.AdjustChapterCount(c.Request.Context(), mangaID, -1); err != nil {
		logger.Warnf("failed to drop chapter count for manga %d: %v", mangaID, err)
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "chapter deleted"})
}

// requireUploader loads the series and rejects callers who neither
// uploaded it nor hold the admin role.
func (h *Handler) requireUploader(c *gin.Context) bool {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return false
	}
	mangaID, err := strconv.Atoi(c.Param("mangaID"))
	if err != nil || mangaID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid manga ID"})
		return false
	}

	m, err := h.mangas.GetByID(c.Request.Context(), mangaID)
	if errors.Is(err, wallet.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "manga not found"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load manga"})
		return false
	}

	role, _ := auth.GetUserRole(c)
	if m.UploaderID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the uploader can modify chapters"})
		return false
	}
	return true
}
