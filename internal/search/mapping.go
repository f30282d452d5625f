package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for menu item documents.
// Labels are stemmed; menu names and route names are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = en.AnalyzerName
	nameField.Store = true
	nameField.IncludeTermVectors = true // highlighting
	docMapping.AddFieldMappingsAt("name", nameField)

	// Paths split on punctuation so "/services/web/" matches "web".
	urlField := bleve.NewTextFieldMapping()
	urlField.Analyzer = simple.Name
	urlField.Store = true
	docMapping.AddFieldMappingsAt("url", urlField)

	menuField := bleve.NewTextFieldMapping()
	menuField.Analyzer = keyword.Name
	menuField.Store = true
	docMapping.AddFieldMappingsAt("menu_name", menuField)

	namedURLField := bleve.NewTextFieldMapping()
	namedURLField.Analyzer = keyword.Name
	namedURLField.Store = true
	docMapping.AddFieldMappingsAt("named_url", namedURLField)

	for _, field := range []string{"item_id", "parent_id", "order"} {
		numeric := bleve.NewNumericFieldMapping()
		numeric.Store = true
		docMapping.AddFieldMappingsAt(field, numeric)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
