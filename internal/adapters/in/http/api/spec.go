// Package api holds the HTTP contract of the dispatch service: the OpenAPI
// document, its wire types and the echo routing glue.
package api

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err = doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

type swaggerDoc struct {
	json string
}

func (d swaggerDoc) ReadDoc() string { return d.json }

var registerOnce sync.Once

// RegisterSwagger publishes doc to swag so the UI can serve it as doc.json.
// Only the first call registers.
func RegisterSwagger(doc *openapi3.T) error {
	var err error
	registerOnce.Do(func() {
		var payload []byte
		payload, err = doc.MarshalJSON()
		if err != nil {
			return
		}
		swag.Register(swag.Name, swaggerDoc{json: string(payload)})
	})
	return err
}
