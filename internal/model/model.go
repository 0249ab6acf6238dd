// Package model holds the GORM persisted entities.
package model

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Article{},
	}
}
