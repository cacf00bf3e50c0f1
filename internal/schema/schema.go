/*
 * This file is part of the Hopsworks Feature Store Metadata Server
 * Copyright (c) 2023 Hopsworks AB
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

// Package schema validates feature group schemas and translates them
// between the offline dialect, the online serving dialect and the Avro
// schema attached to cached feature groups.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/linkedin/goavro/v2"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/stores"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidIdentifier reports whether name is usable as an offline table or
// column identifier.
func ValidIdentifier(name string) bool {
	return name != "" && identifierRegex.MatchString(name)
}

// ValidateFeatures checks the offline schema rules for a feature list.
// The list must be non empty, every feature needs a legal name and a
// type, and names must be unique ignoring case.
func ValidateFeatures(features []catalog.Feature) *fserror.RestErrorCode {
	if len(features) == 0 {
		return fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessage("feature list is empty")
	}
	seen := make(map[string]bool, len(features))
	for _, feature := range features {
		if !ValidIdentifier(feature.Name) {
			return fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessagef(
				"illegal feature name: %s; feature names can only contain alphanumeric characters and underscores", feature.Name)
		}
		if feature.Type == "" {
			return fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessagef("feature %s has no offline type", feature.Name)
		}
		lower := strings.ToLower(feature.Name)
		if seen[lower] {
			return fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessagef("duplicated feature name: %s", feature.Name)
		}
		seen[lower] = true
	}
	return nil
}

// MapOnlineType maps an offline column type to the online serving
// dialect. Parameterized types keep their parameters where the online
// dialect understands them.
func MapOnlineType(offlineType string) (string, *fserror.RestErrorCode) {
	normalized := strings.ToLower(strings.TrimSpace(offlineType))
	base := normalized
	if idx := strings.IndexAny(normalized, "(<"); idx >= 0 {
		base = normalized[:idx]
	}
	switch base {
	case "boolean":
		return "tinyint(1)", nil
	case "tinyint":
		return "tinyint", nil
	case "smallint":
		return "smallint", nil
	case "int":
		return "int", nil
	case "bigint":
		return "bigint", nil
	case "float":
		return "float", nil
	case "double":
		return "double", nil
	case "decimal":
		// decimal(p, s) carries over unchanged
		return normalized, nil
	case "string":
		return "varchar(1000)", nil
	case "char", "varchar":
		return normalized, nil
	case "timestamp":
		return "timestamp", nil
	case "date":
		return "date", nil
	case "binary":
		return "blob", nil
	}
	return "", fserror.ILLEGAL_ONLINE_SCHEMA.NewMessagef(
		"feature type %s is not supported by the online feature store", offlineType)
}

// OfflineTableSchema converts the feature list to the offline table
// schema, carving partition key features out of the column list.
func OfflineTableSchema(features []catalog.Feature) stores.TableSchema {
	var schema stores.TableSchema
	for _, feature := range features {
		col := stores.Column{Name: feature.Name, Type: feature.Type, Primary: feature.Primary}
		if feature.Partition {
			schema.PartitionColumns = append(schema.PartitionColumns, col)
		} else {
			schema.Columns = append(schema.Columns, col)
		}
	}
	return schema
}

// OnlineTableSchema converts the feature list to the online serving
// table schema. Partition keys are plain columns online.
func OnlineTableSchema(features []catalog.Feature) (stores.TableSchema, *fserror.RestErrorCode) {
	var schema stores.TableSchema
	for _, feature := range features {
		onlineType := feature.OnlineType
		if onlineType == "" {
			mapped, err := MapOnlineType(feature.Type)
			if err != nil {
				return stores.TableSchema{}, err
			}
			onlineType = mapped
		}
		schema.Columns = append(schema.Columns,
			stores.Column{Name: feature.Name, Type: onlineType, Primary: feature.Primary})
	}
	return schema, nil
}

type avroField struct {
	Name string        `json:"name"`
	Type []interface{} `json:"type"`
}

type avroRecord struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Namespace string      `json:"namespace"`
	Fields    []avroField `json:"fields"`
}

func avroType(offlineType string) interface{} {
	normalized := strings.ToLower(strings.TrimSpace(offlineType))
	base := normalized
	if idx := strings.IndexAny(normalized, "(<"); idx >= 0 {
		base = normalized[:idx]
	}
	switch base {
	case "boolean":
		return "boolean"
	case "tinyint", "smallint", "int":
		return "int"
	case "bigint":
		return "long"
	case "float":
		return "float"
	case "double":
		return "double"
	case "binary":
		return "bytes"
	case "date":
		return map[string]interface{}{"type": "int", "logicalType": "date"}
	case "timestamp":
		return map[string]interface{}{"type": "long", "logicalType": "timestamp-micros"}
	default:
		// string, char, varchar, decimal and complex types serialize
		// as strings in the materialization pipeline
		return "string"
	}
}

// BuildAvroSchema derives the Avro record schema for a cached feature
// group. Every field is nullable so partial rows can be streamed. The
// result is validated by compiling it into a codec.
func BuildAvroSchema(featurestoreName string, featuregroupName string, version int, features []catalog.Feature) (string, error) {
	record := avroRecord{
		Type:      "record",
		Name:      fmt.Sprintf("%s_%d", featuregroupName, version),
		Namespace: featurestoreName,
	}
	for _, feature := range features {
		record.Fields = append(record.Fields, avroField{
			Name: feature.Name,
			Type: []interface{}{"null", avroType(feature.Type)},
		})
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if _, err := goavro.NewCodec(string(raw)); err != nil {
		return "", fmt.Errorf("derived avro schema does not compile; error: %v", err)
	}
	return string(raw), nil
}
