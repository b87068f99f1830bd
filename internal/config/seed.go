package config

import (
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/hash"
	"github.com/casamorales/restaurant-backend/internal/models"
)

// SeedRoles makes sure the fixed role set exists.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{Name: "admin", Description: "Administrator"},
		{Name: "manager", Description: "Restaurant manager"},
		{Name: "waiter", Description: "Waiter"},
		{Name: "kitchen", Description: "Kitchen staff"},
	}
	for _, r := range roles {
		if err := db.Where(models.Role{Name: r.Name}).FirstOrCreate(&r).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the first administrator account from
// ADMIN_EMAIL/ADMIN_PASSWORD. Skipped when the vars are unset or the
// account already exists.
func SeedAdmin(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		log.Println("skip seeding admin: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var adminRole models.Role
	if err := db.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(pass)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: pwHash,
		Name:         "Administrator",
		RoleID:       adminRole.ID,
	}
	return db.Create(&admin).Error
}
