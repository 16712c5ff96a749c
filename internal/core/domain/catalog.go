package domain

import "time"

// Classification is the audience rating of a movie.
type Classification string

const (
	ClassificationSiete     Classification = "Siete"
	ClassificationTrece     Classification = "Trece"
	ClassificationDieciseis Classification = "Dieciseis"
	ClassificationDieciocho Classification = "Dieciocho"
	ClassificationAdultos   Classification = "Adultos"
)

// IsValid reports whether c is one of the known classifications.
func (c Classification) IsValid() bool {
	switch c {
	case ClassificationSiete, ClassificationTrece, ClassificationDieciseis,
		ClassificationDieciocho, ClassificationAdultos:
		return true
	default:
		return false
	}
}

// Category groups movies.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Movie is a catalog entry.
type Movie struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"duration_minutes"`
	ImagePath       string         `json:"image_path,omitempty"`
	Classification  Classification `json:"classification"`
	CategoryID      int64          `json:"category_id"`
	CreatedAt       time.Time      `json:"created_at"`
}
