// Package models defines the domain types shared across the sync pipeline.
package models

import "time"

// PostHeader is the normalized front matter written for every published post.
// Field order here is the order in the output file.
type PostHeader struct {
	Title       string    `yaml:"title" json:"title"`
	Author      string    `yaml:"author" json:"author"`
	PubDatetime time.Time `yaml:"pubDatetime" json:"pubDatetime"`
	Description string    `yaml:"description" json:"description"`
	Tags        []string  `yaml:"tags,flow" json:"tags"`
	Featured    bool      `yaml:"featured" json:"featured"`
	Draft       bool      `yaml:"draft" json:"draft"`
	Slug        string    `yaml:"slug" json:"slug"`
}

// Post is a rewritten note ready to be written to the posts directory.
type Post struct {
	File   string     `json:"file"`
	Source string     `json:"source"`
	Header PostHeader `json:"header"`
	Body   string     `json:"-"`
	// Links holds the slugs of wiki-link targets found in the body.
	Links []string `json:"links,omitempty"`
}

// Warning is a non-fatal problem found while syncing.
type Warning struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Msg
	}
	return w.Path + ": " + w.Msg
}

// Summary reports the outcome of one sync run.
type Summary struct {
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Warnings  []Warning     `json:"warnings,omitempty"`
	PostsDir  string        `json:"posts_dir"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
