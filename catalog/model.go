package catalog

import (
	"time"

	"github.com/jacentio/canopy/store"
)

// Index names.
const (
	IndexDictionaryName = "name"
	IndexDictionaryID   = "dictionaryId"
	IndexAppType        = "type"
)

// Collection schemas.
var (
	DictionarySchema = store.Schema{
		Table:   "dictionaries",
		Indexes: []store.Index{{Name: IndexDictionaryName, Attr: "name"}},
	}
	ContentSchema = store.Schema{
		Table:   "dictionary_contents",
		Indexes: []store.Index{{Name: IndexDictionaryID, Attr: "dictionary_id"}},
	}
	ApplicationSchema = store.Schema{
		Table:   "applications",
		Indexes: []store.Index{{Name: IndexAppType, Attr: "type"}},
	}
)

// Dictionary is a named lookup list.
type Dictionary struct {
	ID        string    `json:"id" gorm:"primaryKey" dynamodbav:"id"`
	Name      string    `json:"name" gorm:"index" dynamodbav:"name"`
	Remark    string    `json:"remark" dynamodbav:"remark"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}

func (d Dictionary) RecordID() string { return d.ID }

func (d Dictionary) IndexValue(index string) store.IndexKey {
	if index == IndexDictionaryName {
		return store.Key(d.Name)
	}
	return store.NullKey
}

// DictionaryContent is one entry of a dictionary.
type DictionaryContent struct {
	ID           string    `json:"id" gorm:"primaryKey" dynamodbav:"id"`
	DictionaryID string    `json:"dictionaryId" gorm:"index" dynamodbav:"dictionary_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Remark       string    `json:"remark" dynamodbav:"remark"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
}

func (c DictionaryContent) RecordID() string { return c.ID }

func (c DictionaryContent) IndexValue(index string) store.IndexKey {
	if index == IndexDictionaryID {
		return store.Key(c.DictionaryID)
	}
	return store.NullKey
}

// AppType classifies an application.
type AppType string

const (
	AppExternal         AppType = "external"
	AppInternalTemplate AppType = "internal_template"
	AppInternalCustom   AppType = "internal_custom"
)

// TemplateType is the product template of an internal_template application.
type TemplateType string

const (
	TemplateMES TemplateType = "MES"
	TemplateQMS TemplateType = "QMS"
)

// NavigationType is the navigation depth of an application.
type NavigationType string

const (
	NavigationNone   NavigationType = "none"
	NavigationLevel1 NavigationType = "level_1"
	NavigationLevel2 NavigationType = "level_2"
	NavigationLevel3 NavigationType = "level_3"
)

// BusinessEntityType is the kind of business entity an application exposes.
type BusinessEntityType string

const (
	EntityCustomForm      BusinessEntityType = "custom_form"
	EntityDataSource      BusinessEntityType = "data_source"
	EntityBusinessRule    BusinessEntityType = "business_rule"
	EntityCustomDashboard BusinessEntityType = "custom_dashboard"
)

// Application is a registered console application.
type Application struct {
	ID                 string             `json:"id" gorm:"primaryKey" dynamodbav:"id"`
	Name               string             `json:"name" dynamodbav:"name"`
	Type               AppType            `json:"type" gorm:"index" dynamodbav:"type"`
	Remark             string             `json:"remark" dynamodbav:"remark"`
	DeploymentURL      string             `json:"deploymentUrl,omitempty" dynamodbav:"deployment_url,omitempty"`
	TemplateType       TemplateType       `json:"templateType,omitempty" dynamodbav:"template_type,omitempty"`
	NavigationType     NavigationType     `json:"navigationType,omitempty" dynamodbav:"navigation_type,omitempty"`
	BusinessEntityType BusinessEntityType `json:"businessEntityType,omitempty" dynamodbav:"business_entity_type,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt          time.Time          `json:"updatedAt" dynamodbav:"updated_at"`
}

func (a Application) RecordID() string { return a.ID }

func (a Application) IndexValue(index string) store.IndexKey {
	if index == IndexAppType {
		return store.Key(string(a.Type))
	}
	return store.NullKey
}
