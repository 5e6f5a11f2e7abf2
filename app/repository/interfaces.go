package repository

import (
	"github.com/artvaultapp/ArtVault/app/models"
)

// UserRepository defines the interface for user account data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User UserRepository
}
