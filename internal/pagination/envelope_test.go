package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope[int]
		wantErr bool
	}{
		{"valid", Envelope[int]{Results: []int{1, 2}, Limit: 2, Page: 1, TotalPages: 3, TotalResults: 5}, false},
		{"empty page", Envelope[int]{Limit: 10, Page: 1}, false},
		{"page past the end", Envelope[int]{Limit: 10, Page: 4, TotalPages: 2, TotalResults: 12}, false},
		{"zero limit", Envelope[int]{Limit: 0, Page: 1}, true},
		{"zero page", Envelope[int]{Limit: 10, Page: 0}, true},
		{"negative totals", Envelope[int]{Limit: 10, Page: 1, TotalResults: -1}, true},
		{"negative total pages", Envelope[int]{Limit: 10, Page: 1, TotalPages: -2}, true},
		{"more results than limit", Envelope[int]{Results: []int{1, 2, 3}, Limit: 2, Page: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvelope(tt.env)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEnvelope)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(5, 2))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 0, PageCount(10, 0))
}
