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

// Package featuregroup manages the feature group lifecycle. Creating a
// cached feature group provisions physical tables before the catalog
// row is committed; any failure unwinds the already provisioned steps
// in reverse order so no orphaned table survives a failed create.
package featuregroup

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/naming"
	"hopsworks.ai/fsms/internal/schema"
	"hopsworks.ai/fsms/internal/stores"
)

const DefaultInputFormat = "ORC"

// PreviewRows holds sample rows from the physical stores of a cached
// feature group.
type PreviewRows struct {
	Offline []map[string]interface{}
	Online  []map[string]interface{}
}

type Manager struct {
	store    catalog.Store
	offline  stores.OfflineStore
	online   stores.OnlineStore
	fs       stores.FileSystem
	registry *connector.Registry

	locks           *keyedMutex
	rollbackRetries uint
	rollbackDelay   time.Duration
	opTimeout       time.Duration
}

func NewManager(store catalog.Store, offline stores.OfflineStore, online stores.OnlineStore,
	fs stores.FileSystem, registry *connector.Registry,
	rollbackRetries uint, rollbackDelay time.Duration, opTimeout time.Duration) *Manager {
	return &Manager{
		store:           store,
		offline:         offline,
		online:          online,
		fs:              fs,
		registry:        registry,
		locks:           newKeyedMutex(),
		rollbackRetries: rollbackRetries,
		rollbackDelay:   rollbackDelay,
		opTimeout:       opTimeout,
	}
}

// compensate undoes one provisioned step during rollback. It runs on a
// fresh context so a cancelled request still gets cleaned up, and
// retries since the physical stores may be transiently unavailable.
func (m *Manager) compensate(step string, op func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()
	err := retry.Do(
		func() error { return op(ctx) },
		retry.Context(ctx),
		retry.Attempts(m.rollbackRetries),
		retry.Delay(m.rollbackDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Errorf("Rollback step %s failed after %d attempts; error: %v", step, m.rollbackRetries, err)
	}
}

func (m *Manager) validateCreate(fg *catalog.Featuregroup) *fserror.RestErrorCode {
	if fsErr := naming.ValidateFeaturegroupName(fg.Name); fsErr != nil {
		return fsErr
	}
	if fg.Version == 0 {
		fg.Version = 1
	}
	if fsErr := naming.ValidateVersion(fg.Version); fsErr != nil {
		return fsErr
	}
	return nil
}

// Create registers a feature group. Cached groups run the provisioning
// sequence; on-demand groups only validate their query and connector
// reference before the catalog commit.
func (m *Manager) Create(ctx context.Context, fs catalog.Featurestore, fg catalog.Featuregroup) (catalog.Featuregroup, *fserror.RestErrorCode) {
	if fsErr := m.validateCreate(&fg); fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	fg.FeaturestoreID = fs.ID
	if fg.Created.IsZero() {
		fg.Created = time.Now().UTC()
	}
	switch fg.Type {
	case catalog.FeaturegroupCached:
		return m.createCached(ctx, fs, fg)
	case catalog.FeaturegroupOnDemand:
		return m.createOnDemand(ctx, fs, fg)
	default:
		return catalog.Featuregroup{}, fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessagef(
			"unknown feature group type: %s", fg.Type)
	}
}

func (m *Manager) createCached(ctx context.Context, fs catalog.Featurestore, fg catalog.Featuregroup) (catalog.Featuregroup, *fserror.RestErrorCode) {
	if fsErr := schema.ValidateFeatures(fg.Features); fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	var onlineSchema stores.TableSchema
	if fg.OnlineEnabled {
		if m.online == nil {
			return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_NOT_ENABLED.NewMessagef(
				"featurestore: %s", fs.Name)
		}
		mapped, fsErr := schema.OnlineTableSchema(fg.Features)
		if fsErr != nil {
			return catalog.Featuregroup{}, fsErr
		}
		onlineSchema = mapped
	}

	// cheap pre-check; the catalog commit below is the authoritative one
	exists, err := m.store.FeaturegroupExists(ctx, fs.ID, fg.Name, fg.Version)
	if err != nil {
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	if exists {
		return catalog.Featuregroup{}, fserror.FEATUREGROUP_EXISTS.NewMessagef(
			"name: %s, version: %d", fg.Name, fg.Version)
	}

	avroSchema, err := schema.BuildAvroSchema(fs.Name, fg.Name, fg.Version, fg.Features)
	if err != nil {
		return catalog.Featuregroup{}, fserror.ILLEGAL_OFFLINE_SCHEMA.NewMessagef(
			"failed deriving avro schema; error: %v", err)
	}
	fg.AvroSchema = avroSchema
	if fg.InputFormat == "" {
		fg.InputFormat = DefaultInputFormat
	}

	tableName := fg.OfflineTableName()
	table, err := m.offline.CreateTable(ctx, fs.Name, tableName, schema.OfflineTableSchema(fg.Features), fg.InputFormat)
	if err != nil {
		return catalog.Featuregroup{}, fserror.OFFLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed creating offline table %s; error: %v", tableName, err)
	}
	fg.OfflineTableID = table.TableID
	fg.OfflineTableType = table.TableType

	rollbackOffline := func() {
		m.compensate("drop offline table", func(ctx context.Context) error {
			return m.offline.DropTable(ctx, fs.Name, tableName)
		})
	}

	path, err := m.fs.MkDirs(ctx, table.Location)
	if err != nil {
		rollbackOffline()
		return catalog.Featuregroup{}, fserror.FILESYSTEM_OP_FAILED.NewMessagef(
			"failed creating directory %s; error: %v", table.Location, err)
	}
	fg.InodeID = path.InodeID

	rollbackDir := func() {
		m.compensate("remove offline directory", func(ctx context.Context) error {
			return m.fs.Remove(ctx, table.Location)
		})
	}

	if err := ctx.Err(); err != nil {
		rollbackDir()
		rollbackOffline()
		return catalog.Featuregroup{}, fserror.OPERATION_ABORTED.NewMessagef("error: %v", err)
	}

	rollbackOnline := func() {}
	if fg.OnlineEnabled {
		if err := m.online.EnsureDatabase(ctx, fs.Name); err != nil {
			rollbackDir()
			rollbackOffline()
			return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed creating online database %s; error: %v", fs.Name, err)
		}
		if err := m.online.CreateTable(ctx, fs.Name, tableName, onlineSchema); err != nil {
			rollbackDir()
			rollbackOffline()
			return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed creating online table %s; error: %v", tableName, err)
		}
		rollbackOnline = func() {
			m.compensate("drop online table", func(ctx context.Context) error {
				return m.online.DropTable(ctx, fs.Name, tableName)
			})
		}
	}

	if err := m.store.CreateFeaturegroup(ctx, &fg); err != nil {
		rollbackOnline()
		rollbackDir()
		rollbackOffline()
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_EXISTS.NewMessagef(
				"name: %s, version: %d", fg.Name, fg.Version)
		}
		log.Errorf("Failed committing feature group %s; error: %v", tableName, err)
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Created cached feature group %s (id %d) in feature store %s", tableName, fg.ID, fs.Name)
	return fg, nil
}

func (m *Manager) createOnDemand(ctx context.Context, fs catalog.Featurestore, fg catalog.Featuregroup) (catalog.Featuregroup, *fserror.RestErrorCode) {
	if fg.Query == "" {
		return catalog.Featuregroup{}, fserror.ON_DEMAND_QUERY_NOT_PROVIDED.NewMessagef(
			"name: %s", fg.Name)
	}
	if fg.JDBCConnectorID == 0 {
		return catalog.Featuregroup{}, fserror.JDBC_CONNECTOR_NOT_PROVIDED.NewMessagef(
			"name: %s", fg.Name)
	}
	if len(fg.Features) > 0 {
		if fsErr := schema.ValidateFeatures(fg.Features); fsErr != nil {
			return catalog.Featuregroup{}, fsErr
		}
	}
	conn, fsErr := m.registry.Get(ctx, fs.ID, fg.JDBCConnectorID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if conn.Type != catalog.ConnectorJDBC {
		return catalog.Featuregroup{}, fserror.JDBC_CONNECTOR_NOT_PROVIDED.NewMessagef(
			"connector %s is of type %s", conn.Name, conn.Type)
	}

	if err := m.store.CreateFeaturegroup(ctx, &fg); err != nil {
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_EXISTS.NewMessagef(
				"name: %s, version: %d", fg.Name, fg.Version)
		}
		if errors.Is(err, catalog.ErrNotFound) {
			// the connector vanished between the check and the commit
			return catalog.Featuregroup{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
				"connectorId: %d", fg.JDBCConnectorID)
		}
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Created on-demand feature group %s (id %d) in feature store %s", fg.Name, fg.ID, fs.Name)
	return fg, nil
}

func (m *Manager) Get(ctx context.Context, featurestoreID int, featuregroupID int) (catalog.Featuregroup, *fserror.RestErrorCode) {
	fg, err := m.store.GetFeaturegroup(ctx, featurestoreID, featuregroupID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_NOT_FOUND.NewMessagef(
				"featuregroupId: %d", featuregroupID)
		}
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	return fg, nil
}

func (m *Manager) List(ctx context.Context, featurestoreID int) ([]catalog.Featuregroup, *fserror.RestErrorCode) {
	all, err := m.store.ListFeaturegroups(ctx, featurestoreID)
	if err != nil {
		return nil, fserror.AsRestErrorCode(err)
	}
	return all, nil
}

// MetadataUpdate carries the mutable fields of a feature group. Zero
// valued fields keep their current value.
type MetadataUpdate struct {
	Name        string
	Description string
	Query       string
}

// UpdateMetadata changes the catalog row only. Version, type and the
// feature schema are fixed; the name of a cached group is fixed too
// since it names the offline table. Name changes are re-checked for
// uniqueness.
func (m *Manager) UpdateMetadata(ctx context.Context, fs catalog.Featurestore, featuregroupID int, update MetadataUpdate) (catalog.Featuregroup, *fserror.RestErrorCode) {
	unlock := m.locks.lock(featuregroupID)
	defer unlock()

	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if update.Name != "" && update.Name != fg.Name {
		if fg.Type == catalog.FeaturegroupCached {
			return catalog.Featuregroup{}, fserror.ILLEGAL_OFFLINE_TABLE_NAME.NewMessage(
				"the name of a cached feature group cannot be changed; create a new version instead")
		}
		if fsErr := naming.ValidateFeaturegroupName(update.Name); fsErr != nil {
			return catalog.Featuregroup{}, fsErr
		}
		exists, err := m.store.FeaturegroupExists(ctx, fs.ID, update.Name, fg.Version)
		if err != nil {
			return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
		}
		if exists {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_EXISTS.NewMessagef(
				"name: %s, version: %d", update.Name, fg.Version)
		}
		fg.Name = update.Name
	}
	fg.Description = update.Description
	if fg.Type == catalog.FeaturegroupOnDemand && update.Query != "" {
		fg.Query = update.Query
	}
	if err := m.store.UpdateFeaturegroup(ctx, &fg); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_NOT_FOUND.NewMessagef(
				"featuregroupId: %d", featuregroupID)
		}
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_EXISTS.NewMessagef(
				"name: %s, version: %d", fg.Name, fg.Version)
		}
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	return fg, nil
}

// EnableOnline provisions the online serving table of a cached feature
// group. Enabling an already online enabled group is a no-op.
func (m *Manager) EnableOnline(ctx context.Context, fs catalog.Featurestore, featuregroupID int) (catalog.Featuregroup, *fserror.RestErrorCode) {
	unlock := m.locks.lock(featuregroupID)
	defer unlock()

	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if fg.Type != catalog.FeaturegroupCached {
		return catalog.Featuregroup{}, fserror.ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED.NewMessagef(
			"featuregroupId: %d", featuregroupID)
	}
	if fg.OnlineEnabled {
		return fg, nil
	}
	if m.online == nil {
		return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_NOT_ENABLED.NewMessagef(
			"featurestore: %s", fs.Name)
	}
	onlineSchema, fsErr := schema.OnlineTableSchema(fg.Features)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	tableName := fg.OfflineTableName()
	if err := m.online.EnsureDatabase(ctx, fs.Name); err != nil {
		return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed creating online database %s; error: %v", fs.Name, err)
	}
	if err := m.online.CreateTable(ctx, fs.Name, tableName, onlineSchema); err != nil {
		return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed creating online table %s; error: %v", tableName, err)
	}
	fg.OnlineEnabled = true
	if err := m.store.UpdateFeaturegroup(ctx, &fg); err != nil {
		m.compensate("drop online table", func(ctx context.Context) error {
			return m.online.DropTable(ctx, fs.Name, tableName)
		})
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Online enabled feature group %s in feature store %s", tableName, fs.Name)
	return fg, nil
}

// DisableOnline drops the online serving table of a cached feature
// group. Disabling a group that is not online enabled is a no-op.
func (m *Manager) DisableOnline(ctx context.Context, fs catalog.Featurestore, featuregroupID int) (catalog.Featuregroup, *fserror.RestErrorCode) {
	unlock := m.locks.lock(featuregroupID)
	defer unlock()

	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if fg.Type != catalog.FeaturegroupCached {
		return catalog.Featuregroup{}, fserror.ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED.NewMessagef(
			"featuregroupId: %d", featuregroupID)
	}
	if !fg.OnlineEnabled {
		return fg, nil
	}
	tableName := fg.OfflineTableName()
	if err := m.online.DropTable(ctx, fs.Name, tableName); err != nil {
		return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed dropping online table %s; error: %v", tableName, err)
	}
	fg.OnlineEnabled = false
	if err := m.store.UpdateFeaturegroup(ctx, &fg); err != nil {
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Online disabled feature group %s in feature store %s", tableName, fs.Name)
	return fg, nil
}

// ClearContents truncates the physical tables of a cached feature
// group, keeping its metadata.
func (m *Manager) ClearContents(ctx context.Context, fs catalog.Featurestore, featuregroupID int) (catalog.Featuregroup, *fserror.RestErrorCode) {
	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if fg.Type != catalog.FeaturegroupCached {
		return catalog.Featuregroup{}, fserror.ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED.NewMessagef(
			"featuregroupId: %d", featuregroupID)
	}
	tableName := fg.OfflineTableName()
	if err := m.offline.TruncateTable(ctx, fs.Name, tableName); err != nil {
		return catalog.Featuregroup{}, fserror.OFFLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed truncating offline table %s; error: %v", tableName, err)
	}
	if fg.OnlineEnabled {
		if err := m.online.TruncateTable(ctx, fs.Name, tableName); err != nil {
			return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed truncating online table %s; error: %v", tableName, err)
		}
	}
	return fg, nil
}

// Delete removes a feature group and its physical tables. The physical
// drops are idempotent, so a partially failed delete can be retried.
func (m *Manager) Delete(ctx context.Context, fs catalog.Featurestore, featuregroupID int) (catalog.Featuregroup, *fserror.RestErrorCode) {
	unlock := m.locks.lock(featuregroupID)
	defer unlock()

	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return catalog.Featuregroup{}, fsErr
	}
	if fg.Type == catalog.FeaturegroupCached {
		tableName := fg.OfflineTableName()
		if fg.OnlineEnabled {
			if err := m.online.DropTable(ctx, fs.Name, tableName); err != nil {
				return catalog.Featuregroup{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
					"failed dropping online table %s; error: %v", tableName, err)
			}
		}
		if err := m.offline.DropTable(ctx, fs.Name, tableName); err != nil {
			return catalog.Featuregroup{}, fserror.OFFLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed dropping offline table %s; error: %v", tableName, err)
		}
	}
	deleted, err := m.store.DeleteFeaturegroup(ctx, fs.ID, featuregroupID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Featuregroup{}, fserror.FEATUREGROUP_NOT_FOUND.NewMessagef(
				"featuregroupId: %d", featuregroupID)
		}
		return catalog.Featuregroup{}, fserror.AsRestErrorCode(err)
	}
	log.Infof("Deleted feature group %s (id %d) from feature store %s", fg.Name, fg.ID, fs.Name)
	return deleted, nil
}

// Preview returns sample rows from the physical tables of a cached
// feature group.
func (m *Manager) Preview(ctx context.Context, fs catalog.Featurestore, featuregroupID int, limit int) (PreviewRows, *fserror.RestErrorCode) {
	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return PreviewRows{}, fsErr
	}
	if fg.Type != catalog.FeaturegroupCached {
		return PreviewRows{}, fserror.ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED.NewMessagef(
			"featuregroupId: %d", featuregroupID)
	}
	if limit <= 0 {
		limit = 20
	}
	tableName := fg.OfflineTableName()
	offlineRows, err := m.offline.Preview(ctx, fs.Name, tableName, limit)
	if err != nil {
		return PreviewRows{}, fserror.OFFLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed reading offline table %s; error: %v", tableName, err)
	}
	preview := PreviewRows{Offline: offlineRows}
	if fg.OnlineEnabled {
		onlineRows, err := m.online.Preview(ctx, fs.Name, tableName, limit)
		if err != nil {
			return PreviewRows{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed reading online table %s; error: %v", tableName, err)
		}
		preview.Online = onlineRows
	}
	return preview, nil
}

// TableSchemas returns the DDL of the physical tables of a cached
// feature group, offline first and online second when enabled.
func (m *Manager) TableSchemas(ctx context.Context, fs catalog.Featurestore, featuregroupID int) ([]string, *fserror.RestErrorCode) {
	fg, fsErr := m.Get(ctx, fs.ID, featuregroupID)
	if fsErr != nil {
		return nil, fsErr
	}
	if fg.Type != catalog.FeaturegroupCached {
		return nil, fserror.ON_DEMAND_FEATUREGROUP_NOT_SUPPORTED.NewMessagef(
			"featuregroupId: %d", featuregroupID)
	}
	tableName := fg.OfflineTableName()
	offlineDDL, err := m.offline.DescribeTable(ctx, fs.Name, tableName)
	if err != nil {
		return nil, fserror.OFFLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed describing offline table %s; error: %v", tableName, err)
	}
	columns := []string{offlineDDL}
	if fg.OnlineEnabled {
		onlineDDL, err := m.online.DescribeTable(ctx, fs.Name, tableName)
		if err != nil {
			return nil, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
				"failed describing online table %s; error: %v", tableName, err)
		}
		columns = append(columns, onlineDDL)
	}
	return columns, nil
}
