package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formassist-backend/internal/models"
)

func TestMock_OneKeyPerField(t *testing.T) {
	targets := []models.TargetField{
		{Name: "email", Type: models.FieldTypeText},
		{Name: "meta", Type: models.FieldTypeJSON},
		{Name: "notes"},
	}

	data := Mock(targets)

	assert.Len(t, data, len(targets))
	assert.Equal(t, "Mock content for email", data["email"])
	assert.Equal(t, "Mock content for notes", data["notes"])
	assert.Equal(t, map[string]any{"mock": true, "value": "Mock data for meta"}, data["meta"])
}

func TestMock_NoTargets(t *testing.T) {
	want := models.FieldMapping{"message": "Mock response - no targets defined"}

	assert.Equal(t, want, Mock(nil))
	assert.Equal(t, want, Mock([]models.TargetField{}))
}

func TestMock_Deterministic(t *testing.T) {
	targets := []models.TargetField{{Name: "email", Type: models.FieldTypeText}}

	assert.Equal(t, Mock(targets), Mock(targets))
}
