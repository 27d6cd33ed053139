package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes a document as YAML.
func MarshalYAML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML document. Unknown fields are errors.
func UnmarshalYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalJSON encodes a document as indented JSON.
func MarshalJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalJSON decodes a JSON document. Unknown fields are errors.
func UnmarshalJSON(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Decode reads a document in either format, trying JSON first.
func Decode(data []byte) (*Document, error) {
	doc, errJSON := UnmarshalJSON(data)
	if errJSON == nil {
		return doc, nil
	}
	doc, errYaml := UnmarshalYAML(data)
	if errYaml != nil {
		return nil, fmt.Errorf("document could not be unmarshaled as a .json (%v) or .yml (%v)", errJSON, errYaml)
	}
	return doc, nil
}
