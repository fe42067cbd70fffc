package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validation limits for request fields. String limits count characters,
// list limits count entries.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxContentLen = 1_000_000
	maxExcerptLen = 1_000
	maxNameLen    = 100
	maxBioLen     = 2_000
	maxLabelLen   = 50
	maxLabels     = 30
	maxToolLen    = 100
	maxStoryLen   = 20_000
)

// comicRatios are the aspect ratios the image providers accept.
var comicRatios = []any{"1:1", "4:3", "3:4", "16:9", "9:16", "3:2", "2:3"}

// labelRules validates a list of tag, category or AI generation tag names.
var labelRules = []validation.Rule{
	validation.Length(0, maxLabels),
	validation.Each(validation.RuneLength(0, maxLabelLen)),
}

// invalid writes a 400 for a validation failure. Internal validator errors
// are reported as 500.
func invalid(w http.ResponseWriter, r *http.Request, err error) {
	var internal validation.InternalError
	if errors.As(err, &internal) {
		serverError(w, r, "validate request", err)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// postRequest is the body of post create and update calls.
type postRequest struct {
	Title        string   `json:"title"`
	Slug         *string  `json:"slug"`
	Content      string   `json:"content"`
	Excerpt      *string  `json:"excerpt"`
	CoverImage   *string  `json:"coverImage"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	Categories   []string `json:"categories"`
	WasPublished *bool    `json:"wasPublished"`
}

func (p postRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&p.Slug, validation.RuneLength(0, maxSlugLen)),
		validation.Field(&p.Content, validation.RuneLength(0, maxContentLen)),
		validation.Field(&p.Excerpt, validation.RuneLength(0, maxExcerptLen)),
		validation.Field(&p.CoverImage, is.URL),
		validation.Field(&p.Tags, labelRules...),
		validation.Field(&p.Categories, labelRules...),
	)
}

// aiGenerationRequest is the body of AI generation create and update calls.
type aiGenerationRequest struct {
	Title       string   `json:"title"`
	AITool      string   `json:"aiTool"`
	Prompt      string   `json:"prompt"`
	InputParams *string  `json:"inputParams"`
	Output      string   `json:"output"`
	Tags        []string `json:"tags"`
}

func (g aiGenerationRequest) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&g.AITool, validation.Required, validation.RuneLength(1, maxToolLen)),
		validation.Field(&g.Prompt, validation.Required, validation.RuneLength(1, maxContentLen)),
		validation.Field(&g.InputParams, validation.RuneLength(0, maxContentLen)),
		validation.Field(&g.Output, validation.Required, validation.RuneLength(1, maxContentLen)),
		validation.Field(&g.Tags, labelRules...),
	)
}

// publishRequest carries the published state the caller last saw.
type publishRequest struct {
	Published *bool `json:"published"`
}

func (p publishRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Published, validation.NotNil),
	)
}

// comicRequest is the body of a comic generation call.
type comicRequest struct {
	Title string `json:"title"`
	Story string `json:"story"`
	Model string `json:"model"`
	Style string `json:"style"`
	Ratio string `json:"ratio"`
}

func (c comicRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&c.Story, validation.Required, validation.RuneLength(1, maxStoryLen)),
		validation.Field(&c.Model, validation.RuneLength(0, maxToolLen)),
		validation.Field(&c.Style, validation.RuneLength(0, maxToolLen)),
		validation.Field(&c.Ratio, validation.In(comicRatios...)),
	)
}

// profileRequest is a partial update of the caller's own profile.
type profileRequest struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

func (p profileRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLen)),
		validation.Field(&p.Bio, validation.RuneLength(0, maxBioLen)),
		validation.Field(&p.Avatar, is.URL),
	)
}

// userFlagsRequest is an admin update of another user's permissions.
type userFlagsRequest struct {
	ID         string `json:"id"`
	CanPublish *bool  `json:"canPublish"`
	IsAdmin    *bool  `json:"isAdmin"`
}

func (u userFlagsRequest) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.ID, validation.Required, is.UUID),
	)
}
