package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "STUDENT"
	RoleFaculty = "FACULTY"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model
	Name            string     `gorm:"default:''"`
	Email           string     `gorm:"unique;not null"`
	RollNumber      string     `gorm:"default:''"`
	Department      string     `gorm:"default:''"`
	Role            string     `gorm:"default:'STUDENT'"` // STUDENT, FACULTY, ADMIN
	Password        string     `gorm:"not null"`
	IsEmailVerified bool       `gorm:"default:false"`
	LastLogin       *time.Time `json:"last_login"`
	IsDeleted       bool       `gorm:"default:false"`
}
