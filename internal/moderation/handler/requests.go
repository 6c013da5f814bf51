package handler

import (
	"strings"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	pstrings "modgate/pkg/platform/strings"
)

const maxMessageLength = 2000

// TransitionRequest is the HTTP request body for
// POST /resources/{kind}/{resourceID}/transition.
type TransitionRequest struct {
	Action  string `json:"action"`
	Message string `json:"message"`

	parsedAction models.Action
}

// Normalize canonicalizes fields before validation.
func (r *TransitionRequest) Normalize() {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Message = strings.TrimSpace(r.Message)
}

// Validate validates and parses the request.
func (r *TransitionRequest) Validate() error {
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	action, err := models.ParseAction(r.Action)
	if err != nil {
		return err
	}
	r.parsedAction = action

	if len(r.Message) > maxMessageLength {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 2000 characters")
	}
	return nil
}

// ParsedAction returns the validated action.
func (r *TransitionRequest) ParsedAction() models.Action {
	return r.parsedAction
}

// CreateSubmissionRequest is the HTTP request body for POST /resources/submission.
type CreateSubmissionRequest struct {
	OwnerID string                `json:"owner_id"`
	Title   string                `json:"title"`
	Meta    SubmissionMetaRequest `json:"meta"`
	Assets  []string              `json:"assets"`

	parsedOwnerID id.OwnerID
}

// SubmissionMetaRequest is the declared metadata portion of a submission.
type SubmissionMetaRequest struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Platform string   `json:"platform"`
	Version  string   `json:"version"`
}

func (r *CreateSubmissionRequest) Normalize() {
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.Title = strings.TrimSpace(r.Title)
	r.Meta.Category = strings.ToLower(strings.TrimSpace(r.Meta.Category))
	r.Meta.Tags = pstrings.DedupeAndTrimLower(r.Meta.Tags)
	r.Meta.Platform = strings.TrimSpace(r.Meta.Platform)
	r.Meta.Version = strings.TrimSpace(r.Meta.Version)
	r.Assets = pstrings.DedupeAndTrim(r.Assets)
}

func (r *CreateSubmissionRequest) Validate() error {
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	ownerID, err := id.ParseOwnerID(r.OwnerID)
	if err != nil {
		return err
	}
	r.parsedOwnerID = ownerID

	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 256 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 256 characters")
	}
	if r.Meta.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "meta.category is required")
	}
	return nil
}

// ParsedOwnerID returns the validated owner ID.
func (r *CreateSubmissionRequest) ParsedOwnerID() id.OwnerID {
	return r.parsedOwnerID
}

// ToMeta converts the request metadata to its domain form.
func (r *CreateSubmissionRequest) ToMeta() models.SubmissionMeta {
	return models.SubmissionMeta{
		Category: r.Meta.Category,
		Tags:     r.Meta.Tags,
		Platform: r.Meta.Platform,
		Version:  r.Meta.Version,
	}
}

// ToAssets converts the asset references to their domain form.
func (r *CreateSubmissionRequest) ToAssets() []models.AssetRef {
	if len(r.Assets) == 0 {
		return nil
	}
	assets := make([]models.AssetRef, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, models.AssetRef(a))
	}
	return assets
}

// CreateAccountRequest is the HTTP request body for POST /resources/account.
type CreateAccountRequest struct {
	OwnerID string                `json:"owner_id"`
	Profile AccountProfileRequest `json:"profile"`

	parsedOwnerID id.OwnerID
}

// AccountProfileRequest is the publisher profile portion of a registration.
type AccountProfileRequest struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website"`
	Contact     string `json:"contact"`
}

func (r *CreateAccountRequest) Normalize() {
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.Profile.DisplayName = strings.TrimSpace(r.Profile.DisplayName)
	r.Profile.Website = strings.TrimSpace(r.Profile.Website)
	r.Profile.Contact = strings.TrimSpace(r.Profile.Contact)
}

func (r *CreateAccountRequest) Validate() error {
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	ownerID, err := id.ParseOwnerID(r.OwnerID)
	if err != nil {
		return err
	}
	r.parsedOwnerID = ownerID

	if r.Profile.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "profile.display_name is required")
	}
	if len(r.Profile.DisplayName) > 256 {
		return dErrors.New(dErrors.CodeValidation, "profile.display_name must be at most 256 characters")
	}
	return nil
}

// ParsedOwnerID returns the validated owner ID.
func (r *CreateAccountRequest) ParsedOwnerID() id.OwnerID {
	return r.parsedOwnerID
}

// ToProfile converts the request profile to its domain form.
func (r *CreateAccountRequest) ToProfile() models.AccountProfile {
	return models.AccountProfile{
		DisplayName: r.Profile.DisplayName,
		Website:     r.Profile.Website,
		Contact:     r.Profile.Contact,
	}
}
