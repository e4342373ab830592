package dto

type UpdateProfileDTO struct {
	Username             *string `form:"username" json:"username"`
	Biography            *string `form:"biography" json:"biography"`
	DeleteExistingAvatar bool    `form:"deleteExistingAvatar" json:"deleteExistingAvatar"`
}
