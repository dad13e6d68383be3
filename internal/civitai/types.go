package civitai

import "time"

const DefaultBaseURL = "https://civitai.com/api/v1"

type Config struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	// Limit is the result count requested per search.
	Limit   int
	Timeout time.Duration
	// MaxRetries counts retries after the first attempt.
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
}

type searchResponse struct {
	Items []Model `json:"items"`
}

type Model struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	ModelVersions []ModelVersion `json:"modelVersions"`
}

type ModelVersion struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	BaseModel    string   `json:"baseModel"`
	TrainedWords []string `json:"trainedWords"`
}
