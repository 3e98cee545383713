package api

import (
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/models"
)

// PostListResponse wraps the manifest post listing.
type PostListResponse struct {
	Posts []index.PostRow `json:"posts"`
	Total int             `json:"total"`
}

// SummaryResponse reports the last run and, when the manifest is enabled,
// its link and slug checks.
type SummaryResponse struct {
	LastRun        *models.Summary      `json:"last_run"`
	Posts          int                  `json:"posts"`
	DanglingLinks  []index.DanglingLink `json:"dangling_links"`
	SlugCollisions []index.Collision    `json:"slug_collisions"`
}
