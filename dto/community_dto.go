package dto

type CreateCommunityDTO struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

type UpdateCommunityDTO struct {
	Name        *string `form:"name" json:"name"`
	Description *string `form:"description" json:"description"`
}
