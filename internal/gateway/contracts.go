package gateway

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const (
	schemaRepMeResponse    = "rep_me_response"
	schemaProductsResponse = "products_response"
	schemaOrderRequest     = "order_request"
	schemaOrderResponse    = "order_response"
)

// contracts holds the compiled JSON Schemas of the backend API.
type contracts map[string]*jsonschema.Schema

func loadContracts() (contracts, error) {
	names := []string{
		schemaRepMeResponse,
		schemaProductsResponse,
		schemaOrderRequest,
		schemaOrderResponse,
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	out := make(contracts, len(names))
	for _, name := range names {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		url := fmt.Sprintf("https://idistr.schemas.local/gateway/%s.schema.json", name)
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema load failed: %w", err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema compile failed: %w", err)
		}
		out[name] = compiled
	}
	return out, nil
}

// validateBody checks raw JSON against the named schema.
func (c contracts) validateBody(name string, body []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %s: invalid JSON: %v", ErrContract, name, err)
	}
	if err := c[name].Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrContract, name, err)
	}
	return nil
}

// validateValue encodes v and checks it against the named schema.
func (c contracts) validateValue(name string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	if err := c.validateBody(name, body); err != nil {
		return nil, err
	}
	return body, nil
}
