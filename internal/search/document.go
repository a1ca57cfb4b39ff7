package search

import (
	"time"

	"github.com/hackup/backend/internal/models"
)

// PostDocument is the Elasticsearch representation of a post
type PostDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostToDocument converts a post (with User loaded, if available) to its index document
func PostToDocument(p *models.Post) PostDocument {
	return PostDocument{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  p.User.Username,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
}

// postsIndexMapping keeps title and content as analyzed text plus a
// lowercased keyword copy used for substring (wildcard) matching
var postsIndexMapping = map[string]interface{}{
	"settings": map[string]interface{}{
		"analysis": map[string]interface{}{
			"normalizer": map[string]interface{}{
				"lowercase_normalizer": map[string]interface{}{
					"type":   "custom",
					"filter": []string{"lowercase"},
				},
			},
		},
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":       map[string]interface{}{"type": "keyword"},
			"user_id":  map[string]interface{}{"type": "keyword"},
			"username": map[string]interface{}{"type": "keyword"},
			"title": map[string]interface{}{
				"type": "text",
				"fields": map[string]interface{}{
					"keyword_lower": map[string]interface{}{
						"type":       "keyword",
						"normalizer": "lowercase_normalizer",
					},
				},
			},
			"content": map[string]interface{}{
				"type": "text",
				"fields": map[string]interface{}{
					"keyword_lower": map[string]interface{}{
						"type":         "keyword",
						"normalizer":   "lowercase_normalizer",
						"ignore_above": 1024,
					},
				},
			},
			"created_at": map[string]interface{}{"type": "date"},
		},
	},
}
