package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notesync/internal/apperr"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	File        string    `json:"file"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Checksum    string    `json:"checksum"`
	Tags        []string  `json:"tags"`
	PubDatetime time.Time `json:"pubDatetime"`
}

// DanglingLink is a wiki-link whose target slug matches no published post.
type DanglingLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Collision lists the posts that share one slug.
type Collision struct {
	Slug  string   `json:"slug"`
	Files []string `json:"files"`
}

// Reset removes every post and link. A sync run starts from an empty manifest
// just as it starts from an empty posts directory.
func (db *DB) Reset() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("index: reset links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM posts`); err != nil {
		return fmt.Errorf("index: reset posts: %w", err)
	}
	return tx.Commit()
}

// RecordPost inserts or replaces a post and its outgoing links within a transaction.
func (db *DB) RecordPost(p PostRow, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO posts (file, source, title, slug, checksum, tags, pub_datetime)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			source       = excluded.source,
			title        = excluded.title,
			slug         = excluded.slug,
			checksum     = excluded.checksum,
			tags         = excluded.tags,
			pub_datetime = excluded.pub_datetime,
			synced_at    = CURRENT_TIMESTAMP
	`, p.File, p.Source, p.Title, p.Slug, p.Checksum, string(tagsJSON), p.PubDatetime.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// Replace links: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.File); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(p.File, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetPost returns the post written under file.
func (db *DB) GetPost(file string) (*PostRow, error) {
	row := db.conn.QueryRow(`
		SELECT file, source, title, slug, checksum, tags, pub_datetime
		FROM posts WHERE file = ?
	`, file)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return p, nil
}

// ListPosts returns every recorded post, newest first.
func (db *DB) ListPosts() ([]PostRow, error) {
	rows, err := db.conn.Query(`
		SELECT file, source, title, slug, checksum, tags, pub_datetime
		FROM posts ORDER BY pub_datetime DESC, file ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DanglingLinks returns links whose target slug no recorded post carries.
func (db *DB) DanglingLinks() ([]DanglingLink, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, l.target
		FROM links l
		LEFT JOIN posts p ON p.slug = l.target
		WHERE p.file IS NULL
		ORDER BY l.source, l.target
	`)
	if err != nil {
		return nil, fmt.Errorf("index: dangling links: %w", err)
	}
	defer rows.Close()

	var out []DanglingLink
	for rows.Next() {
		var d DanglingLink
		if err := rows.Scan(&d.Source, &d.Target); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SlugCollisions returns every slug carried by more than one post.
func (db *DB) SlugCollisions() ([]Collision, error) {
	rows, err := db.conn.Query(`
		SELECT slug, file FROM posts
		WHERE slug IN (SELECT slug FROM posts GROUP BY slug HAVING count(*) > 1)
		ORDER BY slug, file
	`)
	if err != nil {
		return nil, fmt.Errorf("index: slug collisions: %w", err)
	}
	defer rows.Close()

	var out []Collision
	for rows.Next() {
		var s, f string
		if err := rows.Scan(&s, &f); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Slug == s {
			out[n-1].Files = append(out[n-1].Files, f)
			continue
		}
		out = append(out, Collision{Slug: s, Files: []string{f}})
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*PostRow, error) {
	var p PostRow
	var tagsJSON string
	if err := s.Scan(&p.File, &p.Source, &p.Title, &p.Slug, &p.Checksum, &tagsJSON, &p.PubDatetime); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	return &p, nil
}
