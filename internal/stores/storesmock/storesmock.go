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

// Package storesmock provides in-memory stand-ins for the physical
// stores. They back the mock config backends and the unit tests; the
// Fail* hooks let tests force individual operations to error so the
// rollback paths can be exercised.
package storesmock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"hopsworks.ai/fsms/internal/stores"
)

type offlineTable struct {
	schema      stores.TableSchema
	inputFormat string
	table       stores.OfflineTable
}

// OfflineStore is a map backed stores.OfflineStore.
type OfflineStore struct {
	mu          sync.Mutex
	nextTableID int64
	tables      map[string]*offlineTable

	FailCreateTable   error
	FailDropTable     error
	FailTruncateTable error
}

var _ stores.OfflineStore = (*OfflineStore)(nil)

func NewOfflineStore() *OfflineStore {
	return &OfflineStore{tables: make(map[string]*offlineTable)}
}

func tableKey(dbName string, tableName string) string {
	return strings.ToLower(dbName) + "." + strings.ToLower(tableName)
}

func (o *OfflineStore) CreateTable(ctx context.Context, dbName string, tableName string, schema stores.TableSchema, inputFormat string) (stores.OfflineTable, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailCreateTable != nil {
		return stores.OfflineTable{}, o.FailCreateTable
	}
	key := tableKey(dbName, tableName)
	if _, ok := o.tables[key]; ok {
		return stores.OfflineTable{}, fmt.Errorf("table %s.%s already exists", dbName, tableName)
	}
	o.nextTableID++
	tbl := stores.OfflineTable{
		TableID:   o.nextTableID,
		TableType: "MANAGED_TABLE",
		Location:  fmt.Sprintf("/apps/hive/warehouse/%s.db/%s", dbName, tableName),
	}
	o.tables[key] = &offlineTable{schema: schema, inputFormat: inputFormat, table: tbl}
	return tbl, nil
}

func (o *OfflineStore) DropTable(ctx context.Context, dbName string, tableName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailDropTable != nil {
		return o.FailDropTable
	}
	delete(o.tables, tableKey(dbName, tableName))
	return nil
}

func (o *OfflineStore) TruncateTable(ctx context.Context, dbName string, tableName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailTruncateTable != nil {
		return o.FailTruncateTable
	}
	if _, ok := o.tables[tableKey(dbName, tableName)]; !ok {
		return stores.ErrTableNotFound
	}
	return nil
}

func (o *OfflineStore) Preview(ctx context.Context, dbName string, tableName string, limit int) ([]map[string]interface{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.tables[tableKey(dbName, tableName)]; !ok {
		return nil, stores.ErrTableNotFound
	}
	return []map[string]interface{}{}, nil
}

func (o *OfflineStore) DescribeTable(ctx context.Context, dbName string, tableName string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	tbl, ok := o.tables[tableKey(dbName, tableName)]
	if !ok {
		return "", stores.ErrTableNotFound
	}
	return stores.BuildOfflineDDL(dbName, tableName, tbl.schema, tbl.inputFormat), nil
}

// HasTable reports whether the table exists. Test helper.
func (o *OfflineStore) HasTable(dbName string, tableName string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.tables[tableKey(dbName, tableName)]
	return ok
}

// OnlineStore is a map backed stores.OnlineStore.
type OnlineStore struct {
	mu        sync.Mutex
	databases map[string]bool
	tables    map[string]stores.TableSchema

	FailEnsureDatabase error
	FailCreateTable    error
	FailDropTable      error
	FailTruncateTable  error
}

var _ stores.OnlineStore = (*OnlineStore)(nil)

func NewOnlineStore() *OnlineStore {
	return &OnlineStore{
		databases: make(map[string]bool),
		tables:    make(map[string]stores.TableSchema),
	}
}

func (o *OnlineStore) EnsureDatabase(ctx context.Context, dbName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailEnsureDatabase != nil {
		return o.FailEnsureDatabase
	}
	o.databases[strings.ToLower(dbName)] = true
	return nil
}

func (o *OnlineStore) CreateTable(ctx context.Context, dbName string, tableName string, schema stores.TableSchema) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailCreateTable != nil {
		return o.FailCreateTable
	}
	key := tableKey(dbName, tableName)
	if _, ok := o.tables[key]; ok {
		return fmt.Errorf("table %s.%s already exists", dbName, tableName)
	}
	o.tables[key] = schema
	return nil
}

func (o *OnlineStore) DropTable(ctx context.Context, dbName string, tableName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailDropTable != nil {
		return o.FailDropTable
	}
	delete(o.tables, tableKey(dbName, tableName))
	return nil
}

func (o *OnlineStore) TruncateTable(ctx context.Context, dbName string, tableName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailTruncateTable != nil {
		return o.FailTruncateTable
	}
	if _, ok := o.tables[tableKey(dbName, tableName)]; !ok {
		return stores.ErrTableNotFound
	}
	return nil
}

func (o *OnlineStore) Preview(ctx context.Context, dbName string, tableName string, limit int) ([]map[string]interface{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.tables[tableKey(dbName, tableName)]; !ok {
		return nil, stores.ErrTableNotFound
	}
	return []map[string]interface{}{}, nil
}

func (o *OnlineStore) DescribeTable(ctx context.Context, dbName string, tableName string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	schema, ok := o.tables[tableKey(dbName, tableName)]
	if !ok {
		return "", stores.ErrTableNotFound
	}
	return stores.BuildOnlineDDL(dbName, tableName, schema), nil
}

func (o *OnlineStore) Credentials(ctx context.Context, dbName string) (stores.Credentials, error) {
	return stores.Credentials{
		User:             dbName + "_user",
		Password:         "mock",
		ConnectionString: "jdbc:mysql://127.0.0.1:3306/" + dbName,
	}, nil
}

// HasTable reports whether the serving table exists. Test helper.
func (o *OnlineStore) HasTable(dbName string, tableName string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.tables[tableKey(dbName, tableName)]
	return ok
}

// FileSystem is a map backed stores.FileSystem rooted at a virtual
// projects directory.
type FileSystem struct {
	mu          sync.Mutex
	rootDir     string
	nextInodeID int64
	paths       map[string]stores.Path

	FailMkDirs error
	FailRemove error
}

var _ stores.FileSystem = (*FileSystem)(nil)

func NewFileSystem(rootDir string) *FileSystem {
	return &FileSystem{
		rootDir: strings.TrimSuffix(rootDir, "/"),
		paths:   make(map[string]stores.Path),
	}
}

// AddDataset seeds a project dataset, as dataset creation is owned by
// the project service and not by this server.
func (f *FileSystem) AddDataset(projectName string, datasetName string) stores.Path {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(f.datasetPath(projectName, datasetName))
}

func (f *FileSystem) datasetPath(projectName string, datasetName string) string {
	return fmt.Sprintf("%s/%s/%s", f.rootDir, projectName, datasetName)
}

func (f *FileSystem) addLocked(path string) stores.Path {
	if p, ok := f.paths[path]; ok {
		return p
	}
	f.nextInodeID++
	p := stores.Path{Path: path, InodeID: f.nextInodeID}
	f.paths[path] = p
	return p
}

func (f *FileSystem) DatasetPath(ctx context.Context, projectName string, datasetName string) (stores.Path, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.paths[f.datasetPath(projectName, datasetName)]
	if !ok {
		return stores.Path{}, stores.ErrPathNotFound
	}
	return p, nil
}

func (f *FileSystem) MkDirs(ctx context.Context, path string) (stores.Path, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMkDirs != nil {
		return stores.Path{}, f.FailMkDirs
	}
	return f.addLocked(strings.TrimSuffix(path, "/")), nil
}

func (f *FileSystem) Remove(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRemove != nil {
		return f.FailRemove
	}
	path = strings.TrimSuffix(path, "/")
	for p := range f.paths {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(f.paths, p)
		}
	}
	return nil
}

// HasPath reports whether the path exists. Test helper.
func (f *FileSystem) HasPath(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.paths[strings.TrimSuffix(path, "/")]
	return ok
}
