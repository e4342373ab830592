package dto

type CreateChallengeDTO struct {
	Title           string `form:"title" json:"title"`
	Description     string `form:"description" json:"description"`
	StartDate       string `form:"startDate" json:"startDate"`
	EndDate         string `form:"endDate" json:"endDate"`
	MaxParticipants string `form:"maxParticipants" json:"maxParticipants"` // empty means unlimited
}

type UpdateChallengeDTO struct {
	StartDate       *string `form:"startDate" json:"startDate"`
	EndDate         *string `form:"endDate" json:"endDate"`
	MaxParticipants *string `form:"maxParticipants" json:"maxParticipants"`
	Status          *string `form:"status" json:"status"`
}
