package extractor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

func init() {
	register("metadata", &metadata{})
}

// metadata copies fields off the document, or off its parent for paths
// with a `parent.` prefix. The parent is resolved lazily and at most once
// per extraction, however many entries reference it.
type metadata struct{}

func (e *metadata) FetchValuesForItem(spec model.ExtractorSpec, item *model.Document, parents DocumentFetcher) (map[string]any, error) {
	result := make(map[string]any)
	itemMap := item.AsMap()
	var parentMap map[string]any
	parentLoaded := false

	for path, key := range spec {
		source := itemMap
		bits := strings.Split(path, ".")
		if len(bits) > 2 {
			// Known limitation: only one level after the prefix.
			logger.Error("invalid compound path in extractor spec",
				zap.String("path", path), zap.String("id", item.ID))
			continue
		}
		if len(bits) == 2 {
			if bits[0] != "parent" {
				logger.Error("invalid compound path in extractor spec",
					zap.String("path", path), zap.String("id", item.ID))
				continue
			}
			if !parentLoaded {
				parentLoaded = true
				parentMap = loadParentForItem(item, parents)
			}
			source = parentMap
			bits = bits[1:]
		}
		if source == nil {
			continue
		}
		if value, ok := source[bits[0]]; ok && value != nil {
			result[key] = value
		}
	}
	return result, nil
}

func loadParentForItem(item *model.Document, parents DocumentFetcher) map[string]any {
	if item.ParentID == "" || item.ParentIDTenant == "" {
		logger.Warn("no parent found for item while reading metadata values",
			zap.String("id", item.ID))
		return nil
	}
	parent, err := parents.FetchDocumentRaw(item.ParentIDTenant, item.ParentID)
	if err != nil {
		logger.Warn("failed to load parent for item",
			zap.String("id", item.ID), zap.String("parentId", item.ParentID), zap.Error(err))
		return nil
	}
	if parent == nil {
		logger.Warn("no parent found for item while reading metadata values",
			zap.String("id", item.ID))
		return nil
	}
	return parent.AsMap()
}
