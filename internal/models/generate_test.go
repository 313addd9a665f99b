package models_test

import (
	"testing"

	"github.com/kdduha/snap2html/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		image string
		want  error
	}{
		{"ok", "data:image/png;base64,AAAA", nil},
		{"empty", "", models.ErrEmptyImage},
		{"blank", "   ", models.ErrEmptyImage},
		{"raw base64", "iVBORw0KGgo=", models.ErrImageNotDataURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, models.GenerateRequest{Image: tt.image}.Validate(), tt.want)
			assert.ErrorIs(t, models.RecreateRequest{Image: tt.image}.Validate(), tt.want)
		})
	}
}
