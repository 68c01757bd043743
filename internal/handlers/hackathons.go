package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hackmate-backend/internal/models"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Hackathon listings are plain CRUD: field validation and persistence
// passthrough. The team workflow only ever reads the hackathon id.

type HackathonRequest struct {
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Format      string         `json:"format"`
	StartAt     time.Time      `json:"start_at"`
	EndAt       time.Time      `json:"end_at"`
	Tracks      datatypes.JSON `json:"tracks"`
	Link        string         `json:"link"`
}

func (h *AuthHandler) ListHackathons(c echo.Context) error {
	hackathons, err := models.ListHackathons(h.DB)
	if err != nil {
		c.Logger().Error("Failed to list hackathons:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list hackathons")
	}
	return c.JSON(http.StatusOK, hackathons)
}

func (h *AuthHandler) GetHackathon(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid hackathon id")
	}

	hackathon, err := models.GetHackathonByID(h.DB, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Hackathon not found")
	}
	return c.JSON(http.StatusOK, hackathon)
}

func (h *AuthHandler) CreateHackathon(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	req := new(HackathonRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hackathon := &models.Hackathon{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Format:      req.Format,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Tracks:      req.Tracks,
		Link:        req.Link,
		CreatedBy:   user.ID,
	}

	if err := h.DB.Create(hackathon).Error; err != nil {
		c.Logger().Errorf("Failed to create hackathon: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create hackathon")
	}
	return c.JSON(http.StatusCreated, hackathon)
}

func (h *AuthHandler) UpdateHackathon(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid hackathon id")
	}

	hackathon, err := models.GetHackathonByID(h.DB, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Hackathon not found")
	}

	req := new(HackathonRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hackathon.Title = req.Title
	hackathon.Description = req.Description
	hackathon.Location = req.Location
	hackathon.Format = req.Format
	hackathon.StartAt = req.StartAt
	hackathon.EndAt = req.EndAt
	hackathon.Tracks = req.Tracks
	hackathon.Link = req.Link

	if err := h.DB.Save(hackathon).Error; err != nil {
		c.Logger().Errorf("Failed to update hackathon: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update hackathon")
	}
	return c.JSON(http.StatusOK, hackathon)
}

func (h *AuthHandler) DeleteHackathon(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid hackathon id")
	}

	result := h.DB.Delete(&models.Hackathon{}, uint(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Hackathon not found")
		}
		c.Logger().Errorf("Failed to delete hackathon: %v", result.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete hackathon")
	}
	return c.NoContent(http.StatusNoContent)
}
