package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		totalPages int
		want       int
	}{
		{"above range", 99, 5, 5},
		{"below range", -3, 5, 1},
		{"zero", 0, 5, 1},
		{"inside range", 3, 5, 3},
		{"unknown totals", 7, 0, 1},
		{"single page", 2, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampPage(tt.n, tt.totalPages))
		})
	}
}

func TestQueryStateSetPage(t *testing.T) {
	s := newQueryState(1, 10)
	s.replace(PageState{Page: 1, Limit: 10, TotalRows: 45, TotalPages: 5})

	assert.True(t, s.setPage(4))
	assert.False(t, s.setPage(4), "same page is not a change")
	assert.True(t, s.setPage(50))
	assert.Equal(t, 5, s.snapshot().Page)
}

func TestQueryStateReset(t *testing.T) {
	s := newQueryState(3, 10)
	s.replace(PageState{Page: 3, Limit: 10, TotalRows: 45, TotalPages: 5})

	s.reset(25)
	assert.Equal(t, PageState{Page: 1, Limit: 25}, s.snapshot())
}

func TestNewQueryStateFloorsPage(t *testing.T) {
	assert.Equal(t, 1, newQueryState(0, 10).snapshot().Page)
	assert.Equal(t, 1, newQueryState(-4, 10).snapshot().Page)
}
