package dto

// MaxDescriptionChars caps the problem description accepted from clients.
const MaxDescriptionChars = 50000

type Problem struct {
	Title       string `json:"title" validate:"required,max=500"`
	URL         string `json:"url" validate:"omitempty,max=2000"`
	Description string `json:"description" validate:"omitempty,max=50000"`
	Difficulty  string `json:"difficulty" validate:"omitempty,max=50"`
}

type HintsRequest struct {
	Problem      Problem `json:"problem" validate:"required"`
	Platform     string  `json:"platform" validate:"omitempty,oneof=leetcode codeforces codechef"`
	ForceRefresh bool    `json:"forceRefresh"`
}

func (r HintsRequest) Validate() error {
	return validate.Struct(r)
}

// HintsPayload is the parsed three-level hint set returned by upstream.
type HintsPayload struct {
	Hints struct {
		Gentle   string `json:"gentle"`
		Stronger string `json:"stronger"`
		Almost   string `json:"almost"`
	} `json:"hints"`
	Topic           string `json:"topic"`
	TimeComplexity  string `json:"timeComplexity"`
	SpaceComplexity string `json:"spaceComplexity"`
}

type ExplanationPayload struct {
	Explanation string   `json:"explanation"`
	KeyConcepts []string `json:"keyConcepts"`
	Examples    []string `json:"examples"`
	Approach    string   `json:"approach"`
}

// HintsResponse wraps either payload kind together with cache metadata.
type HintsResponse struct {
	Success  bool        `json:"success"`
	Cached   bool        `json:"cached"`
	CachedAt int64       `json:"cachedAt,omitempty"`
	Result   interface{} `json:"result"`
}
