package repository

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/observability"

	"gorm.io/gorm"
)

// ListFilter is the list configuration shared by the product and vacancy
// collections.
type ListFilter struct {
	Search     string
	OnlyActive bool
	Sort       string
}

// SortOption is one entry of a collection's ordering menu.
type SortOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// order is the ORDER BY list; empty means the collection default.
	order []string
}

// sortOptions is an ordered ordering menu with a lookup by key.
type sortOptions []SortOption

// resolve returns the ORDER BY list for key. Unknown keys use the default
// ordering.
func (s sortOptions) resolve(key string, fallback []string) []string {
	for _, opt := range s {
		if opt.Key == key && len(opt.order) > 0 {
			return opt.order
		}
	}
	return fallback
}

// public strips the ORDER BY lists.
func (s sortOptions) public() []SortOption {
	out := make([]SortOption, len(s))
	for i, opt := range s {
		out[i] = SortOption{Key: opt.Key, Label: opt.Label}
	}
	return out
}

// listQuery is everything findPage needs to run one list.
type listQuery struct {
	table   string
	scope   func(*gorm.DB) *gorm.DB
	preload func(*gorm.DB) *gorm.DB
	order   []string
}

// findPage counts the scoped rows, resolves the page window and loads that
// window with associations. Every call starts from a new session on db, so
// the same listQuery can run any number of times.
func findPage[T any](ctx context.Context, db *gorm.DB, q listQuery, p Pagination) (*Page[T], error) {
	defer observability.TrackQuery("list", q.table)()

	scoped := func() *gorm.DB {
		tx := db.WithContext(ctx).Model(new(T))
		if q.scope != nil {
			tx = q.scope(tx)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	offset, limit, err := p.window(total)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, limit)
	if limit > 0 {
		tx := scoped()
		if q.preload != nil {
			tx = q.preload(tx)
		}
		for _, o := range q.order {
			tx = tx.Order(o)
		}
		if err := tx.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	observability.RecordSearch(q.table, total)
	return newPage(items, total, p), nil
}

// activeScope restricts to is_active rows of table when on.
func activeScope(tx *gorm.DB, table string, on bool) *gorm.DB {
	if !on {
		return tx
	}
	return tx.Where(table+".is_active = ?", true)
}

// searchScope restricts to rows where any of columns contains term, ignoring
// case. LIKE wildcards in term match literally.
func searchScope(tx *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return tx
	}

	pattern := "%" + escapeLike(term) + "%"
	postgres := tx.Dialector.Name() == "postgres"

	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		if postgres {
			conds[i] = col + ` ILIKE ? ESCAPE '\'`
			args[i] = pattern
		} else {
			conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = strings.ToLower(pattern)
		}
	}
	return tx.Where("("+strings.Join(conds, " OR ")+")", args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
