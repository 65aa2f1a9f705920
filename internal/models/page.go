// Package models contains the data structures exchanged with the social-network API.
package models

// Page is one fixed-size, zero-indexed slice of a server-held list.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Number        int  `json:"number"`
	Size          int  `json:"size,omitempty"`
	Last          bool `json:"last"`
	TotalPages    int  `json:"totalPages,omitempty"`
	TotalElements int  `json:"totalElements,omitempty"`
}
