package services

import (
	"fmt"
	"strings"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"gorm.io/gorm"
)

func paginate(q dtos.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(q.Offset()).Limit(q.Limit)
	}
}

// listPage counts the rows matched by tx and loads the requested page.
func listPage[T any](tx *gorm.DB, q dtos.ListQuery, order string) (*dtos.Page[T], error) {
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	items := make([]T, 0, q.Limit)
	if int64(q.Offset()) < total {
		if err := tx.Scopes(paginate(q)).Order(order).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("load page %d: %w", q.Page, err)
		}
	}
	return &dtos.Page[T]{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into an ILIKE pattern matching it anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
