package pictogram

import (
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Category groups pictograms by everyday context (meals, hygiene,
// emotions). Inactive categories are kept for history but reject new
// pictogram links.
type Category struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedBy types.ID  `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pictogram is a shared vocabulary symbol with its image and audio
// assets. Pictograms are reference data: patients link to them, they
// are never owned by a patient.
type Pictogram struct {
	ID          types.ID  `json:"id"`
	Name        string    `json:"name"`
	CategoryID  types.ID  `json:"category_id"`
	ImagePath   string    `json:"image_path,omitempty"`
	AudioPath   string    `json:"audio_path,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   types.ID  `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCategoryRequest is the request to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// CreatePictogramRequest is the request to create a pictogram.
type CreatePictogramRequest struct {
	Name        string   `json:"name"`
	CategoryID  types.ID `json:"category_id"`
	ImagePath   string   `json:"image_path,omitempty"`
	AudioPath   string   `json:"audio_path,omitempty"`
	Description string   `json:"description,omitempty"`
}

// UpdatePictogramRequest is the request to update a pictogram.
type UpdatePictogramRequest struct {
	Name        *string `json:"name,omitempty"`
	ImagePath   *string `json:"image_path,omitempty"`
	AudioPath   *string `json:"audio_path,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ListFilter defines filters for listing pictograms.
type ListFilter struct {
	CategoryID *types.ID `json:"category_id,omitempty"`
	Active     *bool     `json:"active,omitempty"`
	Search     string    `json:"search,omitempty"`
}
