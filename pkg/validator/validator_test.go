package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ID   uuid.UUID `validate:"uuid_required"`
	Slug string    `validate:"required,slug"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(sample{ID: uuid.New(), Slug: "house-blend-250g"}))

	errs := ValidateStruct(sample{Slug: "house-blend"})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "uuid_required", errs[0].Tag)
	}
}

func TestSlugRule(t *testing.T) {
	for _, bad := range []string{"House", "two  spaces", "-lead", "trail-", "dou--ble", "under_score"} {
		errs := ValidateStruct(sample{ID: uuid.New(), Slug: bad})
		assert.NotEmpty(t, errs, bad)
	}
}

func TestFirstError(t *testing.T) {
	assert.Equal(t, "", FirstError(sample{ID: uuid.New(), Slug: "ok"}))
	assert.Equal(t, "Field 'sample.Slug' failed on tag 'required'", FirstError(sample{ID: uuid.New()}))
}
