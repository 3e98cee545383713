package index

import "fmt"

// Report is the manifest view shown by the status command and the status
// server.
type Report struct {
	Posts      []PostRow      `json:"posts"`
	Dangling   []DanglingLink `json:"dangling_links"`
	Collisions []Collision    `json:"slug_collisions"`
}

// BuildReport reads the whole manifest. Empty sections are returned as empty
// slices, never nil.
func BuildReport(m Manifest) (*Report, error) {
	posts, err := m.ListPosts()
	if err != nil {
		return nil, fmt.Errorf("index: report: %w", err)
	}
	dangling, err := m.DanglingLinks()
	if err != nil {
		return nil, fmt.Errorf("index: report: %w", err)
	}
	collisions, err := m.SlugCollisions()
	if err != nil {
		return nil, fmt.Errorf("index: report: %w", err)
	}
	r := &Report{Posts: posts, Dangling: dangling, Collisions: collisions}
	if r.Posts == nil {
		r.Posts = []PostRow{}
	}
	if r.Dangling == nil {
		r.Dangling = []DanglingLink{}
	}
	if r.Collisions == nil {
		r.Collisions = []Collision{}
	}
	return r, nil
}
