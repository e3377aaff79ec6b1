package services

import (
	"testing"

	"github.com/justsurfingit/hireboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCompany(t *testing.T) {
	companies := []models.Company{
		{ID: 1, Name: "Go"},
		{ID: 2, Name: "Stripe"},
		{ID: 3, Name: "Acme Corp"},
	}

	tests := []struct {
		name    string
		subject string
		sender  string
		want    uint
	}{
		{"subject", "Update on your application to Stripe", "noreply@greenhouse.io", 2},
		{"display name", "Your application", "Stripe Recruiting <jobs@greenhouse.io>", 2},
		{"domain", "Next steps", "Jane <jane@stripe.com>", 2},
		{"domain without spaces", "Hello", "hr@acmecorp.com", 3},
		{"unparseable sender", "Hello", "not an address", 0},
		{"short names ignored", "Go team says hi", "go@golang.org", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchCompany(companies, tt.subject, tt.sender)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
