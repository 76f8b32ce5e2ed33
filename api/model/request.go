package model

import (
	"mime/multipart"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/KuperOK/Translate-AI-helper/internal/llm"
)

// TranslationUploadRequest is the multipart form for starting a translation.
type TranslationUploadRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`
	NumParts int                   `form:"num_parts,default=1" binding:"min=1,max=10"`
	Model    string                `form:"model" binding:"omitempty,llmmodel"`
}

// JobURI binds the job ID path parameter.
type JobURI struct {
	ID string `uri:"id" binding:"required"`
}

// ListQuery binds pagination parameters.
type ListQuery struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

// Offset converts the page number to a row offset.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// validateModel restricts the model field to the selectable model names.
func validateModel(fl validator.FieldLevel) bool {
	return llm.IsKnownModel(fl.Field().String())
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("llmmodel", validateModel)
	}
}
