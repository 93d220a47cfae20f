package dto

import "time"

type AddFavoriteRequest struct {
	ProblemID  string `json:"problem_id" validate:"required,max=255"`
	URL        string `json:"url" validate:"required,max=2000"`
	Title      string `json:"title" validate:"required,max=500"`
	Platform   string `json:"platform" validate:"required,oneof=leetcode codeforces codechef"`
	Difficulty string `json:"difficulty" validate:"omitempty,max=30"`
}

func (r AddFavoriteRequest) Validate() error {
	return validate.Struct(r)
}

type FavoriteResponse struct {
	ProblemID  string    `json:"problem_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Platform   string    `json:"platform"`
	Difficulty string    `json:"difficulty,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

type FavoriteCheckResponse struct {
	Favorited bool `json:"favorited"`
}
