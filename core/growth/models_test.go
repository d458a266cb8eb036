package growth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTree(t *testing.T) {
	tests := []struct {
		posts       int
		wantLevel   int
		wantNextAt  int
		wantPostsTo int
	}{
		{0, 1, 5, 5},
		{4, 1, 5, 1},
		{5, 2, 15, 10},
		{49, 4, 50, 1},
		{119, 6, 120, 1},
		{120, 7, 0, 0},
		{500, 7, 0, 0},
	}
	for _, tt := range tests {
		tree := NewTree(tt.posts, 42)
		assert.Equal(t, tt.wantLevel, tree.Level.Level, "posts %d", tt.posts)
		assert.Equal(t, tt.wantNextAt, tree.NextLevelAt, "posts %d", tt.posts)
		assert.Equal(t, tt.wantPostsTo, tree.PostsToNext, "posts %d", tt.posts)
		assert.Equal(t, 42, tree.Points)
	}
}

func TestLevels(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		assert.Equal(t, i+1, Levels[i].Level)
		assert.Greater(t, Levels[i].MinPosts, Levels[i-1].MinPosts)
	}
}
