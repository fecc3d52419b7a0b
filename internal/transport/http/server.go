package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"timber_threads/internal/domain/models"
	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/storage"
	filestorage "timber_threads/internal/storage/filestorage"
	"timber_threads/internal/transport/http/dto"
	"timber_threads/internal/transport/http/dto/request"
	"timber_threads/internal/transport/http/dto/response"

	gallery "timber_threads/internal/services/gallery_service"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
)

type GalleryService interface {
	List(ctx context.Context) (*models.GalleryDocument, error)
	Create(ctx context.Context, input gallery.CreateImageInput) (*models.ImageRecord, error)
	SoftDelete(ctx context.Context, sourceID string) (*models.GalleryDocument, error)
	Restore(ctx context.Context, sourceID string) (*models.GalleryDocument, error)
	PermanentlyDelete(ctx context.Context, sourceID string) (*models.GalleryDocument, error)
	UpdateCaption(ctx context.Context, sourceID, caption string) (*models.GalleryDocument, error)
	UpdateSection(ctx context.Context, sourceID string, newSection models.Section) (*models.GalleryDocument, error)
	ReorderSection(ctx context.Context, section models.Section, orderedSourceIDs []string) (*models.GalleryDocument, error)
}

type MediaService interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (filestorage.UploadResult, error)
}

type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) error
}

type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (uuid.UUID, error)
	ListInquiries(ctx context.Context, page, perPage int) (*dto.ContactListResponse, error)
}

const galleryCacheKey = "gallery_document"

type Routers struct {
	log            *slog.Logger
	GalleryService GalleryService
	MediaService   MediaService
	AuthService    AuthService
	ContactService ContactService
	cache          *gocache.Cache
}

func NewRouter(log *slog.Logger, galleryService GalleryService, mediaService MediaService, authService AuthService, contactService ContactService) *Routers {
	return &Routers{
		log:            log,
		GalleryService: galleryService,
		MediaService:   mediaService,
		AuthService:    authService,
		ContactService: contactService,
		cache:          gocache.New(30*time.Second, time.Minute),
	}
}

// AdminLogin godoc
// @Summary Admin login
// @Description Exchanges the shared admin password for a session token.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body request.AdminLoginRequest true "Admin password"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/admin/login [post]
func (r *Routers) AdminLogin(c echo.Context) error {
	const op = "http.routers.AdminLogin"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.AdminLoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid login request format")
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	token, err := r.AuthService.Login(c.Request().Context(), req.Password)
	if err != nil {
		log.Warn("admin login failed", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	// Also kept in the session cookie so the browser admin panel works
	// without managing the Authorization header itself.
	if sess, sessErr := session.Get("session", c); sessErr == nil {
		sess.Values["admin_token"] = token
		_ = sess.Save(c.Request(), c.Response())
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{"access_token": token}))
}

// AdminLogout godoc
// @Summary Admin logout
// @Description Revokes the session token carried in the Authorization header.
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/logout [post]
func (r *Routers) AdminLogout(c echo.Context) error {
	const op = "http.routers.AdminLogout"

	log := r.log.With(
		slog.String("op", op),
	)

	token := BearerToken(c)
	sess, sessErr := session.Get("session", c)
	if token == "" && sessErr == nil {
		if v, ok := sess.Values["admin_token"].(string); ok {
			token = v
		}
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if err := r.AuthService.Logout(c.Request().Context(), token); err != nil {
		log.Warn("logout failed", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if sessErr == nil {
		delete(sess.Values, "admin_token")
		_ = sess.Save(c.Request(), c.Response())
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "logged out"})
}

// GetGallery godoc
// @Summary Gallery document
// @Description Returns the whole gallery document, active and deleted images.
// @Tags gallery
// @Produce json
// @Success 200 {object} models.GalleryDocument
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/gallery [get]
func (r *Routers) GetGallery(c echo.Context) error {
	const op = "http.routers.GetGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	if cached, ok := r.cache.Get(galleryCacheKey); ok {
		return c.JSON(http.StatusOK, cached)
	}

	doc, err := r.GalleryService.List(c.Request().Context())
	if err != nil {
		log.Error("failed to load gallery", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Status: "error",
			Error:  "internal_error",
		})
	}

	r.cache.SetDefault(galleryCacheKey, doc)

	return c.JSON(http.StatusOK, doc)
}

// UploadImage godoc
// @Summary Upload a gallery image
// @Description Multipart upload: stores the asset on the image host and
// @Description registers it at the end of its section.
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param caption formData string false "Caption"
// @Param section formData string true "Section (Facility or Quilting)"
// @Param alt formData string false "Alt text, defaults to the file name"
// @Success 201 {object} dto.UploadImageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/gallery [post]
func (r *Routers) UploadImage(c echo.Context) error {
	const op = "http.routers.UploadImage"

	log := r.log.With(
		slog.String("op", op),
	)

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("no file uploaded", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "No file uploaded"))
	}

	section, ok := models.NormalizeSection(c.FormValue("section"))
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Unknown section"))
	}

	res, err := r.MediaService.Upload(c.Request().Context(), file)
	if err != nil {
		return r.galleryError(c, log, err)
	}

	alt := c.FormValue("alt")
	if alt == "" {
		alt = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	now := time.Now().UTC()
	record, err := r.GalleryService.Create(c.Request().Context(), gallery.CreateImageInput{
		SourceID:   res.SourceID,
		AltText:    alt,
		Caption:    c.FormValue("caption"),
		Section:    section,
		Width:      res.Width,
		Height:     res.Height,
		UploadedAt: &now,
	})
	if err != nil {
		log.Error("failed to register uploaded image", sl.Err(err))
		return r.galleryError(c, log, err)
	}

	r.cache.Delete(galleryCacheKey)

	return c.JSON(http.StatusCreated, dto.UploadImageResponse{
		Message: "File uploaded successfully",
		URL:     res.URL,
		Image:   *record,
	})
}

// PatchGallery godoc
// @Summary Mutate the gallery document
// @Description Dispatches on the action query parameter: softDelete, restore,
// @Description updateCaption, updateSection or updateOrder.
// @Tags gallery
// @Accept json
// @Produce json
// @Param action query string true "Action" Enums(softDelete, restore, updateCaption, updateSection, updateOrder)
// @Success 200 {object} response.Response{data=models.GalleryDocument}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/gallery [patch]
func (r *Routers) PatchGallery(c echo.Context) error {
	const op = "http.routers.PatchGallery"

	action := c.QueryParam("action")

	log := r.log.With(
		slog.String("op", op),
		slog.String("action", action),
	)

	if action == "" {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "No action specified"))
	}

	ctx := c.Request().Context()

	var (
		doc *models.GalleryDocument
		err error
	)

	switch action {
	case "softDelete":
		var req dto.ImageRefRequest
		if ok, respErr := bindAndValidate(c, &req); !ok {
			return respErr
		}
		doc, err = r.GalleryService.SoftDelete(ctx, req.Src)

	case "restore":
		var req dto.ImageRefRequest
		if ok, respErr := bindAndValidate(c, &req); !ok {
			return respErr
		}
		doc, err = r.GalleryService.Restore(ctx, req.Src)

	case "updateCaption":
		var req dto.UpdateCaptionRequest
		if ok, respErr := bindAndValidate(c, &req); !ok {
			return respErr
		}
		doc, err = r.GalleryService.UpdateCaption(ctx, req.Src, req.Caption)

	case "updateSection":
		var req dto.UpdateSectionRequest
		if ok, respErr := bindAndValidate(c, &req); !ok {
			return respErr
		}
		section, ok := models.NormalizeSection(req.NewSection)
		if !ok {
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Unknown section"))
		}
		doc, err = r.GalleryService.UpdateSection(ctx, req.Src, section)

	case "updateOrder":
		var req dto.UpdateOrderRequest
		if ok, respErr := bindAndValidate(c, &req); !ok {
			return respErr
		}
		section, ok := models.NormalizeSection(req.Section)
		if !ok {
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Unknown section"))
		}
		doc, err = r.GalleryService.ReorderSection(ctx, section, req.OrderedImages)

	default:
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Unknown action: "+action))
	}

	if err != nil {
		log.Warn("gallery mutation failed", sl.Err(err))
		return r.galleryError(c, log, err)
	}

	r.cache.Delete(galleryCacheKey)

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Message: "Operation successful",
		Data:    doc,
	})
}

// DeleteImage godoc
// @Summary Permanently delete an image
// @Description Removes a soft-deleted image for good and requests asset
// @Description removal from the image host (best effort).
// @Tags gallery
// @Produce json
// @Param src query string true "Source id"
// @Success 200 {object} response.Response{data=models.GalleryDocument}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/gallery [delete]
func (r *Routers) DeleteImage(c echo.Context) error {
	const op = "http.routers.DeleteImage"

	log := r.log.With(
		slog.String("op", op),
	)

	src := c.QueryParam("src")
	if src == "" {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "No src provided"))
	}

	doc, err := r.GalleryService.PermanentlyDelete(c.Request().Context(), src)
	if err != nil {
		log.Warn("permanent delete failed", sl.Err(err))
		return r.galleryError(c, log, err)
	}

	r.cache.Delete(galleryCacheKey)

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Message: "File permanently deleted",
		Data:    doc,
	})
}

// SubmitContact godoc
// @Summary Submit a contact inquiry
// @Tags contact
// @Accept json
// @Produce json
// @Param request body dto.ContactRequest true "Inquiry"
// @Success 201 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/contact [post]
func (r *Routers) SubmitContact(c echo.Context) error {
	const op = "http.routers.SubmitContact"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.ContactRequest
	if ok, respErr := bindAndValidate(c, &req); !ok {
		return respErr
	}

	id, err := r.ContactService.Submit(c.Request().Context(), req)
	if err != nil {
		log.Error("failed to submit inquiry", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Status: "error",
			Error:  "internal_error",
		})
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(map[string]string{"id": id.String()}))
}

// ListContacts godoc
// @Summary List contact inquiries
// @Tags contact
// @Produce json
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Page size" default(10)
// @Success 200 {object} dto.ContactListResponse
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/contact [get]
func (r *Routers) ListContacts(c echo.Context) error {
	const op = "http.routers.ListContacts"

	log := r.log.With(
		slog.String("op", op),
	)

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage < 1 || perPage > 100 {
		perPage = 10
	}

	list, err := r.ContactService.ListInquiries(c.Request().Context(), page, perPage)
	if err != nil {
		log.Error("failed to list inquiries", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Status: "error",
			Error:  "internal_error",
		})
	}

	return c.JSON(http.StatusOK, list)
}

// galleryError maps manager errors onto client-facing statuses.
func (r *Routers) galleryError(c echo.Context, log *slog.Logger, err error) error {
	var reorderErr *storage.InvalidReorderError

	switch {
	case errors.Is(err, storage.ErrImageNotFound):
		return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
	case errors.Is(err, storage.ErrDuplicateSourceID):
		return c.JSON(http.StatusConflict, response.ErrDuplicateImage)
	case errors.As(err, &reorderErr):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_reorder", reorderErr.Error()))
	case errors.Is(err, storage.ErrInvalidSection):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "Unknown section"))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "File size exceeds limit"))
	case errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "File is not an image"))
	case errors.Is(err, storage.ErrUpstreamAsset):
		return c.JSON(http.StatusBadGateway, response.ErrUpstreamAsset)
	default:
		log.Error("unexpected gallery error", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Status: "error",
			Error:  "internal_error",
		})
	}
}

// bindAndValidate binds and validates the request body. When it reports
// !ok the response has already been written.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}
	return true, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
