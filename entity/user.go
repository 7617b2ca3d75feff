package entity

import "time"

type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           *string   `json:"email"`
	Password        string    `json:"-"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
