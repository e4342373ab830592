package dto

type CreatePostDTO struct {
	Title   string `form:"title" json:"title"`
	RouteID string `form:"routeId" json:"routeId"`
}

type UpdatePostDTO struct {
	Title               *string `form:"title" json:"title"`
	DeleteExistingPhoto bool    `form:"deleteExistingPhoto" json:"deleteExistingPhoto"`
}
