package hierarchy

import (
	"time"

	"github.com/jacentio/canopy/store"
)

// Index names declared on the organizations collection.
const (
	IndexParent = "parentId"
	IndexLevel  = "level"
)

// Schema declares the organizations collection.
var Schema = store.Schema{
	Table: "organizations",
	Indexes: []store.Index{
		{Name: IndexParent, Attr: "parent_id"},
		{Name: IndexLevel, Attr: "level"},
	},
}

// Organization is one node of the organization forest.
type Organization struct {
	ID          string    `json:"id" gorm:"primaryKey" dynamodbav:"id"`
	Name        string    `json:"name" gorm:"not null" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	ParentID    *string   `json:"parentId" gorm:"index" dynamodbav:"parent_id,omitempty"`
	Level       int       `json:"level" gorm:"index" dynamodbav:"level"`
	Order       int       `json:"order" gorm:"column:sort_order" dynamodbav:"order"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// RecordID implements store.Record.
func (o Organization) RecordID() string { return o.ID }

// IndexValue implements store.Indexed.
func (o Organization) IndexValue(index string) store.IndexKey {
	switch index {
	case IndexParent:
		return store.OptionalKey(o.ParentID)
	case IndexLevel:
		return store.IntKey(o.Level)
	}
	return store.NullKey
}

// IsRoot reports whether the node has no parent.
func (o Organization) IsRoot() bool {
	return o.ParentID == nil
}

// Parent returns the parent id, or "" for a root.
func (o Organization) Parent() string {
	if o.ParentID == nil {
		return ""
	}
	return *o.ParentID
}

// parentRef converts a "" parent id to nil.
func parentRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// sameParent reports whether two optional parent ids are equal.
func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
