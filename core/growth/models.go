package growth

import (
	"time"

	"github.com/trezcool/blogclass/core"
)

// PostPoints is awarded for every submitted post.
const PostPoints = 10

// Level is a stage of the growth tree.
type Level struct {
	Level    int    `json:"level"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	MinPosts int    `json:"min_posts"`
}

// Levels of the growth tree, by increasing MinPosts.
var Levels = []Level{
	{Level: 1, Name: "씨앗", Emoji: "🌰", MinPosts: 0},
	{Level: 2, Name: "새싹", Emoji: "🌱", MinPosts: 5},
	{Level: 3, Name: "묘목", Emoji: "🌿", MinPosts: 15},
	{Level: 4, Name: "어린 나무", Emoji: "🪴", MinPosts: 30},
	{Level: 5, Name: "나무", Emoji: "🌳", MinPosts: 50},
	{Level: 6, Name: "꽃나무", Emoji: "🌸", MinPosts: 80},
	{Level: 7, Name: "열매 나무", Emoji: "🍎", MinPosts: 120},
}

// LevelFor maps a post count to its tree Level.
func LevelFor(postCount int) Level {
	lvl := Levels[0]
	for _, l := range Levels[1:] {
		if postCount < l.MinPosts {
			break
		}
		lvl = l
	}
	return lvl
}

// Tree is the growth tree of a student.
type Tree struct {
	Level
	PostCount   int `json:"post_count"`
	Points      int `json:"points"`
	NextLevelAt int `json:"next_level_at"` // 0 at the last level
	PostsToNext int `json:"posts_to_next"`
}

// NewTree builds the Tree of a student with postCount posts & pts points.
func NewTree(postCount, pts int) Tree {
	lvl := LevelFor(postCount)
	tree := Tree{Level: lvl, PostCount: postCount, Points: pts}
	if lvl.Level < len(Levels) {
		tree.NextLevelAt = Levels[lvl.Level].MinPosts
		tree.PostsToNext = tree.NextLevelAt - postCount
	}
	return tree
}

// Post is a blog post submitted by a student.
type Post struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewPost struct {
	URL   string `json:"url" validate:"required,url,max=500"`
	Title string `json:"title" validate:"required,notblank,max=200"`
}

func (np *NewPost) Clean() {
	np.URL = core.CleanString(np.URL)
	np.Title = core.CleanString(np.Title)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Cohort    int    `query:"cohort"`
}
