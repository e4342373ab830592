package dto

type CreateRouteDTO struct {
	Title           string   `form:"title" json:"title"`
	Description     string   `form:"description" json:"description"`
	DifficultyLevel string   `form:"difficultyLevel" json:"difficultyLevel"`
	ClimbType       string   `form:"climbType" json:"climbType"`
	GeoLocation     string   `form:"geoLocation" json:"geoLocation"`
	AccessCost      *float64 `form:"accessCost" json:"accessCost"`
	RecommendedGear string   `form:"recommendedGear" json:"recommendedGear"`
}
