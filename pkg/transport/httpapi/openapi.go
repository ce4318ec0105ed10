package httpapi

import "github.com/zack-klein/api.zacharyjklein.com/pkg/registry"

type openAPI3Spec struct {
	OpenAPI string                      `json:"openapi"`
	Info    openAPI3Info                `json:"info"`
	Paths   map[string]openAPI3PathItem `json:"paths"`
}

type openAPI3Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type openAPI3PathItem struct {
	Post *openAPI3Operation `json:"post,omitempty"`
}

type openAPI3Operation struct {
	Summary     string                      `json:"summary"`
	Description string                      `json:"description,omitempty"`
	OperationID string                      `json:"operationId"`
	RequestBody *openAPI3RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]openAPI3Response `json:"responses"`
}

type openAPI3RequestBody struct {
	Content map[string]openAPI3MediaType `json:"content"`
}

type openAPI3Response struct {
	Description string                       `json:"description"`
	Content     map[string]openAPI3MediaType `json:"content,omitempty"`
}

type openAPI3MediaType struct {
	Schema map[string]interface{} `json:"schema,omitempty"`
}

var kindSchemaTypes = map[string]string{
	"string": "string",
	"int":    "integer",
	"float":  "number",
	"bool":   "boolean",
}

// paramsSchema is the JSON schema of an action's parameter object.
func paramsSchema(params []registry.ParamDescription) map[string]interface{} {
	props := make(map[string]interface{}, len(params))
	var required []string
	for _, p := range params {
		prop := map[string]interface{}{}
		if t, ok := kindSchemaTypes[p.Kind]; ok {
			prop["type"] = t
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Required {
			required = append(required, p.Name)
		} else if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
	}
	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var errorSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"message": map[string]interface{}{"type": "string"},
		"code":    map[string]interface{}{"type": "string"},
	},
}

// buildOpenAPISpec describes POST /{resource}/{action} for every action of a resource.
func buildOpenAPISpec(d registry.ResourceDescription) *openAPI3Spec {
	paths := make(map[string]openAPI3PathItem, len(d.Actions))
	for _, a := range d.Actions {
		paths["/"+d.Name+"/"+a.Name] = openAPI3PathItem{
			Post: &openAPI3Operation{
				Summary:     a.Name,
				Description: a.Description,
				OperationID: d.Name + "." + a.Name,
				RequestBody: &openAPI3RequestBody{
					Content: map[string]openAPI3MediaType{
						"application/json": {Schema: paramsSchema(a.Params)},
					},
				},
				Responses: map[string]openAPI3Response{
					"200": {Description: "Action result"},
					"400": {
						Description: "Unknown action or invalid parameters",
						Content:     map[string]openAPI3MediaType{"application/json": {Schema: errorSchema}},
					},
					"500": {
						Description: "The action failed",
						Content:     map[string]openAPI3MediaType{"application/json": {Schema: errorSchema}},
					},
				},
			},
		}
	}
	desc := d.Description
	if desc == "" {
		desc = "Resource " + d.Name
	}
	version := d.Version
	if version == "" {
		version = "0.0.0"
	}
	return &openAPI3Spec{
		OpenAPI: "3.0.0",
		Info:    openAPI3Info{Title: d.Name, Description: desc, Version: version},
		Paths:   paths,
	}
}
