package catalog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Field limits.
const (
	MaxNameLength   = 100
	MaxRemarkLength = 500
)

// DictionaryInput is the form data for a dictionary.
type DictionaryInput struct {
	Name   string `json:"name"`
	Remark string `json:"remark"`
}

func (in DictionaryInput) normalize() DictionaryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Remark = strings.TrimSpace(in.Remark)
	return in
}

func (in DictionaryInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required"), validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Remark, validation.RuneLength(0, MaxRemarkLength)),
	))
}

// ContentInput is the form data for a dictionary entry.
type ContentInput struct {
	DictionaryID string `json:"dictionaryId"`
	Name         string `json:"name"`
	Remark       string `json:"remark"`
}

func (in ContentInput) normalize() ContentInput {
	in.DictionaryID = strings.TrimSpace(in.DictionaryID)
	in.Name = strings.TrimSpace(in.Name)
	in.Remark = strings.TrimSpace(in.Remark)
	return in
}

func (in ContentInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.DictionaryID, validation.Required.Error("dictionary is required")),
		validation.Field(&in.Name, validation.Required.Error("name is required"), validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Remark, validation.RuneLength(0, MaxRemarkLength)),
	))
}

// ApplicationInput is the form data for an application.
type ApplicationInput struct {
	Name               string             `json:"name"`
	Type               AppType            `json:"type"`
	Remark             string             `json:"remark"`
	DeploymentURL      string             `json:"deploymentUrl"`
	TemplateType       TemplateType       `json:"templateType"`
	NavigationType     NavigationType     `json:"navigationType"`
	BusinessEntityType BusinessEntityType `json:"businessEntityType"`
}

// normalize trims input and clears the fields that do not apply to the type.
func (in ApplicationInput) normalize() ApplicationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Remark = strings.TrimSpace(in.Remark)
	in.DeploymentURL = strings.TrimSpace(in.DeploymentURL)
	if in.Type != AppExternal {
		in.DeploymentURL = ""
	}
	if in.Type != AppInternalTemplate {
		in.TemplateType = ""
	}
	return in
}

func (in ApplicationInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required"), validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Type,
			validation.Required.Error("type is required"),
			validation.In(AppExternal, AppInternalTemplate, AppInternalCustom),
		),
		validation.Field(&in.Remark, validation.RuneLength(0, MaxRemarkLength)),
		validation.Field(&in.DeploymentURL,
			validation.When(in.Type == AppExternal, validation.Required.Error("deployment url is required"), is.URL),
		),
		validation.Field(&in.TemplateType,
			validation.When(in.Type == AppInternalTemplate, validation.Required.Error("template type is required")),
			validation.In(TemplateMES, TemplateQMS),
		),
		validation.Field(&in.NavigationType,
			validation.In(NavigationNone, NavigationLevel1, NavigationLevel2, NavigationLevel3),
		),
		validation.Field(&in.BusinessEntityType,
			validation.In(EntityCustomForm, EntityDataSource, EntityBusinessRule, EntityCustomDashboard),
		),
	))
}
