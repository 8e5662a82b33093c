package adminserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	imagehttpmapper "github.com/Apurer/go-gin-admin-api/internal/domains/images/adapters/http/mapper"
	imagetypes "github.com/Apurer/go-gin-admin-api/internal/domains/images/application/types"
	imagesports "github.com/Apurer/go-gin-admin-api/internal/domains/images/ports"
	apierrors "github.com/Apurer/go-gin-admin-api/internal/shared/errors"
)

// ImageAPI exposes image metadata endpoints.
type ImageAPI struct {
	service imagesports.Service
}

func NewImageAPI(service imagesports.Service) ImageAPI {
	return ImageAPI{service: service}
}

// Post /admin/v1/images
func (api *ImageAPI) RegisterImage(c *gin.Context) {
	var payload imagehttpmapper.RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	image, err := api.service.Register(c.Request.Context(), imagehttpmapper.ToRegisterInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, imagehttpmapper.FromProjection(image))
}

// Get /admin/v1/images
func (api *ImageAPI) ListImages(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	result, err := api.service.List(c.Request.Context(), imagetypes.ListImagesInput{Page: page, Limit: limit})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, imagehttpmapper.FromPage(result))
}

// Get /admin/v1/images/:imageId
func (api *ImageAPI) GetImage(c *gin.Context) {
	id, ok := parseIDParam(c, "imageId")
	if !ok {
		return
	}
	image, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, imagehttpmapper.FromProjection(image))
}

// Put /admin/v1/images/:imageId
func (api *ImageAPI) RenameImage(c *gin.Context) {
	id, ok := parseIDParam(c, "imageId")
	if !ok {
		return
	}
	var payload imagehttpmapper.RenamePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	image, err := api.service.Rename(c.Request.Context(), imagetypes.RenameImageInput{ID: id, OriginalName: payload.OriginalName})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, imagehttpmapper.FromProjection(image))
}

// Delete /admin/v1/images/:imageId
func (api *ImageAPI) DeleteImage(c *gin.Context) {
	id, ok := parseIDParam(c, "imageId")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	noContent(c)
}
