package rule_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridforge/gridforge-backend/models"
)

func TestRenderChildTag(t *testing.T) {
	parent := models.Asset{Tag: "P-101", Area: "100"}

	assert.Equal(t, "P-101-M", renderChildTag("{parent_tag}-{type}", parent, "MOTOR"))
	assert.Equal(t, "100-P-101", renderChildTag("{area}-{parent_tag}", parent, ""))
	// unresolved markers stay visible
	assert.Equal(t, "P-101-{unit}", renderChildTag("{parent_tag}-{unit}", parent, "MOTOR"))
}

func TestRenderPackageCode(t *testing.T) {
	asset := models.Asset{Tag: "M-201", Area: "100", Discipline: "ELECTRICAL"}
	assert.Equal(t, "PKG-100-ELECTRICAL", renderPackageCode("PKG-{area}-{discipline}", asset))

	assert.Equal(t, "PKG-UNKNOWN", renderPackageCode("PKG-{area}", models.Asset{Tag: "M-201"}))
}

func TestRenderMessage(t *testing.T) {
	asset := models.Asset{
		Tag:        "M-201",
		Properties: map[string]any{"hp": 50, "service": "cooling water"},
	}

	message := renderMessage("{tag}: {hp} hp motor on {service} duty", asset)
	assert.Equal(t, "M-201: 50 hp motor on cooling water duty", message)
}
