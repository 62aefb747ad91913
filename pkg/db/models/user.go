package models

import "time"

// User is the buyer referenced by purchases. This service never mutates
// users; rows are provisioned out of band.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements the gorm naming override.
func (User) TableName() string { return "users" }
