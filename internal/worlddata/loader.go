// Package worlddata загружает статическую таблицу мира из YAML/JSON файла.
package worlddata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/annel0/aetherlink/internal/world"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed world.schema.json
var schemaJSON []byte

const schemaURL = "world.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Validate проверяет сырой документ (YAML или JSON) по схеме таблицы мира
func Validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse world table: %w", err)
	}
	// yaml.v3 выдаёт int/float64 и map[string]interface{}; схема ждёт JSON-модель
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("world table is not JSON-compatible: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return err
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("world table schema: %w", err)
	}
	return nil
}

// Parse проверяет документ по схеме и декодирует его в таблицу мира
func Parse(raw []byte) (world.Data, error) {
	if err := Validate(raw); err != nil {
		return world.Data{}, err
	}

	var data world.Data
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return world.Data{}, fmt.Errorf("decode world table: %w", err)
	}
	return data, nil
}

// Load читает таблицу мира из файла
func Load(path string) (world.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return world.Data{}, fmt.Errorf("read world table %s: %w", path, err)
	}
	data, err := Parse(raw)
	if err != nil {
		return world.Data{}, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// LoadGraph читает файл и строит граф мира
func LoadGraph(path string) (*world.Graph, error) {
	data, err := Load(path)
	if err != nil {
		return nil, err
	}
	return world.NewGraph(data)
}

// Marshal сериализует таблицу мира в YAML
func Marshal(data world.Data) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
