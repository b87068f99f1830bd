package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/hash"
	"github.com/casamorales/restaurant-backend/internal/models"
)

type StaffHandler struct {
	DB *gorm.DB
}

// rfcLength is fixed by the tax authority format.
const rfcLength = 13

type staffRequest struct {
	Name      *string `json:"name"`
	RoleID    *uint   `json:"role_id"`
	RfcNumber *string `json:"rfc_number"`
	IsActive  *bool   `json:"is_active"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	ImageURL  *string `json:"image_url"`
}

func (h *StaffHandler) List(c echo.Context) error {
	var members []models.Staff
	if err := h.DB.Order("name ASC").Find(&members).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *StaffHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var member models.Staff
	if err := h.DB.First(&member, id).Error; err != nil {
		return fail(c, notFound(err, "Staff member"))
	}
	return c.JSON(http.StatusOK, member)
}

func (h *StaffHandler) Create(c echo.Context) error {
	var req staffRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return fail(c, apperrors.ValidationError("name is required"))
	}
	if req.RfcNumber == nil || len(*req.RfcNumber) != rfcLength {
		return fail(c, apperrors.ValidationError("rfc_number must be exactly %d characters", rfcLength))
	}
	if req.RoleID == nil {
		return fail(c, apperrors.ValidationError("role_id is required"))
	}

	var existing models.Staff
	err := h.DB.Where("rfc_number = ?", *req.RfcNumber).First(&existing).Error
	if err == nil {
		return fail(c, apperrors.ConflictError("RFC number already exists"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, err)
	}

	member := models.Staff{
		Name:      *req.Name,
		RoleID:    *req.RoleID,
		RfcNumber: *req.RfcNumber,
		IsActive:  true,
		Email:     req.Email,
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.ImageURL != nil {
		member.ImageURL = *req.ImageURL
	}
	if req.Password != nil && *req.Password != "" {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return fail(c, err)
		}
		member.PasswordHash = &pwHash
	}

	if err := h.DB.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("RFC number already exists"))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *StaffHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req staffRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	var member models.Staff
	if err := h.DB.First(&member, id).Error; err != nil {
		return fail(c, notFound(err, "Staff member"))
	}

	if req.RfcNumber != nil && *req.RfcNumber != member.RfcNumber {
		if len(*req.RfcNumber) != rfcLength {
			return fail(c, apperrors.ValidationError("rfc_number must be exactly %d characters", rfcLength))
		}
		var other models.Staff
		err := h.DB.Where("rfc_number = ? AND id <> ?", *req.RfcNumber, id).First(&other).Error
		if err == nil {
			return fail(c, apperrors.ConflictError("RFC number already exists"))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, err)
		}
		member.RfcNumber = *req.RfcNumber
	}
	if req.Name != nil {
		if *req.Name == "" {
			return fail(c, apperrors.ValidationError("name cannot be empty"))
		}
		member.Name = *req.Name
	}
	if req.RoleID != nil {
		member.RoleID = *req.RoleID
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.Email != nil {
		member.Email = req.Email
	}
	if req.ImageURL != nil {
		member.ImageURL = *req.ImageURL
	}
	if req.Password != nil && *req.Password != "" {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return fail(c, err)
		}
		member.PasswordHash = &pwHash
	}

	if err := h.DB.Save(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("RFC number already exists"))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *StaffHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var assigned int64
	if err := h.DB.Model(&models.Order{}).Where("staff_id = ?", id).Count(&assigned).Error; err != nil {
		return fail(c, err)
	}
	if assigned > 0 {
		return fail(c, apperrors.ConflictError("staff member has %d orders assigned", assigned))
	}

	if err := h.DB.Delete(&models.Staff{}, id).Error; err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
