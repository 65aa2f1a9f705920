package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":           "ID",
		"userId":       "user ID",
		"friendshipId": "friendship ID",
		"commentId":    "comment ID",
		"page":         "page",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestSafeBack(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"/feed", "/feed"},
		{"/wall/3?nav=next", "/wall/3?nav=next"},
		{"", "/wall/1"},
		{"https://evil.example/", "/wall/1"},
		{"//evil.example", "/wall/1"},
		{"/\\evil.example", "/wall/1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeBack(tt.raw, "/wall/1"), tt.raw)
	}
}

func TestRefreshURL(t *testing.T) {
	assert.Equal(t, "/feed?nav=refresh", refreshURL("/feed"))
	assert.Equal(t, "/wall/2?nav=refresh", refreshURL("/wall/2?nav=next"))
}
