package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcmanyika/cashround-sub000/models"
	"github.com/mcmanyika/cashround-sub000/utils"
)

// UserService serves the mirrored user table.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// GetUsers handles GET /api/users and GET /api/users?address=.
func (s *UserService) GetUsers(c *fiber.Ctx) error {
	if address := c.Query("address"); address != "" {
		var user models.User
		err := s.DB.First(&user, "address = ?", utils.NormalizeAddress(address)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		if err != nil {
			log.Printf("user lookup failed for %s: %v", address, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch user"})
		}
		return c.JSON(user)
	}

	var users []models.User
	if err := s.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		log.Printf("user list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch users"})
	}
	return c.JSON(users)
}

// CreateUser handles POST /api/users. The row starts with zeroed chain state;
// a later sync fills in membership and earnings.
func (s *UserService) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Address  string  `json:"address"`
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.Address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "address is required"})
	}
	if !utils.IsAddress(req.Address) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid address"})
	}
	addr := utils.NormalizeAddress(req.Address)

	var count int64
	if err := s.DB.Model(&models.User{}).Where("address = ?", addr).Count(&count).Error; err != nil {
		log.Printf("user existence check failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create user"})
	}
	if count > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "user already exists"})
	}

	user := models.User{
		ID:       uuid.NewString(),
		Address:  addr,
		Username: req.Username,
		Email:    req.Email,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		log.Printf("user insert failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create user"})
	}
	return c.Status(201).JSON(user)
}
