package rule_engine

import (
	"fmt"
	"strings"

	"github.com/gridforge/gridforge-backend/models"
)

// Tag and message templates use {placeholder} markers resolved against the
// triggering asset. Unresolved markers are left in place so bad templates
// are visible in the output instead of silently collapsing.

func renderChildTag(naming string, parent models.Asset, childType string) string {
	typeMarker := ""
	if childType != "" {
		typeMarker = childType[:1]
	}
	replacer := strings.NewReplacer(
		"{parent_tag}", parent.Tag,
		"{type}", typeMarker,
		"{area}", parent.Area,
	)
	return replacer.Replace(naming)
}

func renderAssetTag(pattern string, asset models.Asset) string {
	return strings.ReplaceAll(pattern, "{tag}", asset.Tag)
}

func renderPackageCode(template string, asset models.Asset) string {
	area := asset.Area
	if area == "" {
		area = "UNKNOWN"
	}
	replacer := strings.NewReplacer(
		"{area}", area,
		"{system}", asset.System,
		"{discipline}", asset.Discipline,
	)
	return replacer.Replace(template)
}

// renderMessage substitutes {tag} and any {property} marker with the
// asset's property values.
func renderMessage(template string, asset models.Asset) string {
	message := strings.ReplaceAll(template, "{tag}", asset.Tag)
	for key, value := range asset.Properties {
		message = strings.ReplaceAll(message, "{"+key+"}", fmt.Sprint(value))
	}
	return message
}
