package openapi

import (
	store "github.com/goliatone/go-store"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs a schema generator that renders state snapshots as
// OpenAPI 3 documents. The zero configuration publishes the snapshot schema
// as the request body of post /state.
func NewGenerator(opts ...GeneratorOption) store.SchemaGenerator {
	config := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}
	return generator{config: config}
}

// Option wires the OpenAPI schema generator into a store.
func Option(opts ...GeneratorOption) store.Option {
	return store.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(value any) (store.SchemaDocument, error) {
	root, err := buildSchemaGraph(value)
	if err != nil {
		return store.SchemaDocument{}, err
	}
	document, err := newOpenAPIDocumentBuilder(g.config, newComponentRegistry(), root).build()
	if err != nil {
		return store.SchemaDocument{}, err
	}
	return store.SchemaDocument{
		Format:   store.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}
