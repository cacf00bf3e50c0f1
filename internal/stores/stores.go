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

// Package stores declares the capability interfaces of the external
// systems holding the actual feature data. The catalog core only ever
// talks to these interfaces; the physical clients live in the
// subpackages.
package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrPathNotFound = errors.New("stores: path not found")
var ErrTableNotFound = errors.New("stores: table not found")

type Column struct {
	Name    string
	Type    string
	Primary bool
}

type TableSchema struct {
	Columns          []Column
	PartitionColumns []Column
}

type OfflineTable struct {
	TableID   int64
	TableType string
	Location  string
}

// OfflineStore is the Hive-compatible batch table store.
type OfflineStore interface {
	CreateTable(ctx context.Context, dbName string, tableName string, schema TableSchema, inputFormat string) (OfflineTable, error)
	DropTable(ctx context.Context, dbName string, tableName string) error
	TruncateTable(ctx context.Context, dbName string, tableName string) error
	Preview(ctx context.Context, dbName string, tableName string, limit int) ([]map[string]interface{}, error)
	DescribeTable(ctx context.Context, dbName string, tableName string) (string, error)
}

type Credentials struct {
	User             string
	Password         string
	ConnectionString string
}

// OnlineStore is the low latency relational store for online serving.
type OnlineStore interface {
	EnsureDatabase(ctx context.Context, dbName string) error
	CreateTable(ctx context.Context, dbName string, tableName string, schema TableSchema) error
	DropTable(ctx context.Context, dbName string, tableName string) error
	TruncateTable(ctx context.Context, dbName string, tableName string) error
	Preview(ctx context.Context, dbName string, tableName string, limit int) ([]map[string]interface{}, error)
	DescribeTable(ctx context.Context, dbName string, tableName string) (string, error)
	Credentials(ctx context.Context, dbName string) (Credentials, error)
}

type Path struct {
	Path    string
	InodeID int64
}

// FileSystem is the distributed file system holding project datasets.
type FileSystem interface {
	// DatasetPath resolves a project dataset to its absolute path and
	// returns ErrPathNotFound when the dataset does not exist.
	DatasetPath(ctx context.Context, projectName string, datasetName string) (Path, error)
	// MkDirs creates the directory (and parents) if missing and
	// returns its path entry either way.
	MkDirs(ctx context.Context, path string) (Path, error)
	Remove(ctx context.Context, path string) error
}

// BuildOfflineDDL renders the Hive CREATE TABLE statement for a table
// schema. Partition columns are carved out of the main column list.
func BuildOfflineDDL(dbName string, tableName string, schema TableSchema, inputFormat string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE `%s`.`%s` (", dbName, tableName)
	for i, col := range schema.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "`%s` %s", col.Name, col.Type)
	}
	sb.WriteString(")")
	if len(schema.PartitionColumns) > 0 {
		sb.WriteString(" PARTITIONED BY (")
		for i, col := range schema.PartitionColumns {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "`%s` %s", col.Name, col.Type)
		}
		sb.WriteString(")")
	}
	if inputFormat != "" {
		fmt.Fprintf(&sb, " STORED AS %s", inputFormat)
	}
	return sb.String()
}

// BuildOnlineDDL renders the MySQL CREATE TABLE statement for an
// online serving table.
func BuildOnlineDDL(dbName string, tableName string, schema TableSchema) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE `%s`.`%s` (", dbName, tableName)
	var primary []string
	for i, col := range schema.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "`%s` %s", col.Name, col.Type)
		if col.Primary {
			primary = append(primary, fmt.Sprintf("`%s`", col.Name))
		}
	}
	if len(primary) > 0 {
		fmt.Fprintf(&sb, ", PRIMARY KEY (%s)", strings.Join(primary, ", "))
	}
	sb.WriteString(") ENGINE=NDBCLUSTER")
	return sb.String()
}
