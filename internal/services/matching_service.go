package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/justsurfingit/hireboard/internal/models"
	"gorm.io/gorm"
)

type MatcherService struct {
	DB *gorm.DB
}

func NewMatcherService(db *gorm.DB) *MatcherService {
	return &MatcherService{DB: db}
}

// FindCompanyFromEmail matches an email to a tracked company, or returns nil.
func (s *MatcherService) FindCompanyFromEmail(ctx context.Context, subject, rawSender string) (*models.Company, error) {
	// TODO: cache the company list between sync cycles
	var companies []models.Company
	if err := s.DB.WithContext(ctx).Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	return matchCompany(companies, subject, rawSender), nil
}

// matchCompany checks, in order, the subject line, the sender display name
// and the sender domain for a company name.
func matchCompany(companies []models.Company, subject, rawSender string) *models.Company {
	senderName, senderAddr := "", strings.ToLower(rawSender)
	if addr, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(addr.Name)
		senderAddr = strings.ToLower(addr.Address)
	}
	domain := ""
	if _, d, ok := strings.Cut(senderAddr, "@"); ok {
		domain = d
	}
	subjectLower := strings.ToLower(subject)

	for i := range companies {
		name := strings.ToLower(companies[i].Name)
		// names like "X" or "Go" would match everything
		if len(name) < 3 {
			continue
		}
		if strings.Contains(subjectLower, name) {
			return &companies[i]
		}
		if senderName != "" && strings.Contains(senderName, name) {
			return &companies[i]
		}
		if domain != "" && strings.Contains(domain, strings.ReplaceAll(name, " ", "")) {
			return &companies[i]
		}
	}
	return nil
}
