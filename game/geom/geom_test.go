package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
		ok   bool
	}{
		{"overlap", NewRect(0, 0, 10, 10), NewRect(5, 5, 10, 10), NewRect(5, 5, 5, 5), true},
		{"contained", NewRect(0, 0, 10, 10), NewRect(2, 3, 4, 4), NewRect(2, 3, 4, 4), true},
		{"shared edge", NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), Rect{}, false},
		{"shared corner", NewRect(0, 0, 10, 10), NewRect(10, 10, 5, 5), Rect{}, false},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 5, 5), Rect{}, false},
		{"zero width", NewRect(0, 0, 10, 10), NewRect(5, 5, 0, 3), Rect{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)

			// symmetric
			_, okRev := tt.b.Intersect(tt.a)
			assert.Equal(t, tt.ok, okRev)
		})
	}
}

func TestVec2Distance(t *testing.T) {
	assert.InDelta(t, 5.0, Vec2{X: 0, Y: 0}.Distance(Vec2{X: 3, Y: 4}), 1e-9)
	assert.InDelta(t, 0.0, Vec2{X: 7, Y: 7}.Distance(Vec2{X: 7, Y: 7}), 1e-9)
}

func TestRectTranslate(t *testing.T) {
	r := NewRect(1, 2, 3, 4).Translate(Vec2{X: -1, Y: 0.5})
	assert.Equal(t, NewRect(0, 2.5, 3, 4), r)
	assert.Equal(t, 3.0, r.Right())
	assert.Equal(t, 6.5, r.Bottom())
}
