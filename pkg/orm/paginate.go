// Package orm holds the query helpers shared by repositories: pagination
// and the filter scopes used by list endpoints.
//
//	var out []models.Product
//	meta, err := orm.Paginate(db.Scopes(orm.Contains("name", q)), orm.NewPage(2, 25), &out)
package orm

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to at least 1 and size into [1, MaxPageSize],
// substituting DefaultPageSize for a missing size.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Pagination describes the page returned to the client.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paginate counts the rows matched by q and loads page p of them into dest.
// q must already carry its Model and filters.
func Paginate(q *gorm.DB, p Page, dest any) (Pagination, error) {
	meta := Pagination{Page: p.Number, PageSize: p.Size}

	if err := q.Session(&gorm.Session{}).Count(&meta.Total).Error; err != nil {
		return meta, fmt.Errorf("orm: count: %w", err)
	}
	meta.TotalPages = int((meta.Total + int64(p.Size) - 1) / int64(p.Size))

	if err := q.Offset(p.Offset()).Limit(p.Size).Find(dest).Error; err != nil {
		return meta, fmt.Errorf("orm: page: %w", err)
	}
	return meta, nil
}

// Contains filters column case-insensitively by substring. An empty value
// leaves the query untouched.
func Contains(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" {
			return db
		}
		return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(value)+"%")
	}
}

// Equals filters column by exact value when value is non-nil.
func Equals[T any](column string, value *T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == nil {
			return db
		}
		return db.Where(column+" = ?", *value)
	}
}

// OwnedBy restricts a query to rows belonging to userID.
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
