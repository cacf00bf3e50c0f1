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

// Package connector manages storage connectors, the named handles to
// external physical stores that feature groups and training datasets
// reference.
package connector

import (
	"context"
	"errors"
	"fmt"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/naming"
	"hopsworks.ai/fsms/internal/stores"
)

// OnlineConnectorSuffix is appended to the feature store name to form
// the name of the implicit online feature store connector.
const OnlineConnectorSuffix = "_onlinefeaturestore"

type Registry struct {
	store  catalog.Store
	fs     stores.FileSystem
	online stores.OnlineStore
}

func NewRegistry(store catalog.Store, fs stores.FileSystem, online stores.OnlineStore) *Registry {
	return &Registry{store: store, fs: fs, online: online}
}

// validate checks the variant fields and resolves HopsFS dataset paths.
// The connector is mutated in place with the resolved path.
func (r *Registry) validate(ctx context.Context, fs catalog.Featurestore, conn *catalog.StorageConnector) *fserror.RestErrorCode {
	if fsErr := naming.ValidateConnectorName(conn.Name); fsErr != nil {
		return fsErr
	}
	switch conn.Type {
	case catalog.ConnectorHopsFS:
		if conn.DatasetName == "" {
			return fserror.HOPSFS_DATASET_NOT_FOUND.NewMessage("dataset name was not provided")
		}
		path, err := r.fs.DatasetPath(ctx, fs.ProjectName, conn.DatasetName)
		if err != nil {
			if errors.Is(err, stores.ErrPathNotFound) {
				return fserror.HOPSFS_DATASET_NOT_FOUND.NewMessagef("dataset: %s", conn.DatasetName)
			}
			return fserror.FILESYSTEM_OP_FAILED.NewMessagef(
				"failed resolving dataset %s; error: %v", conn.DatasetName, err)
		}
		conn.HopsfsPath = path.Path
	case catalog.ConnectorS3:
		if conn.Bucket == "" {
			return fserror.S3_BUCKET_NOT_PROVIDED.NewMessagef("connector: %s", conn.Name)
		}
	case catalog.ConnectorJDBC:
		if conn.ConnectionString == "" {
			return fserror.JDBC_CONNECTION_STRING_NOT_PROVIDED.NewMessagef("connector: %s", conn.Name)
		}
	default:
		return fserror.ILLEGAL_CONNECTOR_TYPE.NewMessagef("type: %s", conn.Type)
	}
	return nil
}

func (r *Registry) Create(ctx context.Context, fs catalog.Featurestore, conn catalog.StorageConnector) (catalog.StorageConnector, *fserror.RestErrorCode) {
	conn.FeaturestoreID = fs.ID
	if fsErr := r.validate(ctx, fs, &conn); fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	if err := r.store.CreateConnector(ctx, &conn); err != nil {
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_EXISTS.NewMessagef("name: %s", conn.Name)
		}
		log.Errorf("Failed creating storage connector %s; error: %v", conn.Name, err)
		return catalog.StorageConnector{}, fserror.AsRestErrorCode(err)
	}
	return conn, nil
}

func (r *Registry) Get(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, *fserror.RestErrorCode) {
	conn, err := r.store.GetConnector(ctx, featurestoreID, connectorID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
				"connectorId: %d", connectorID)
		}
		return catalog.StorageConnector{}, fserror.AsRestErrorCode(err)
	}
	return conn, nil
}

func (r *Registry) List(ctx context.Context, featurestoreID int) ([]catalog.StorageConnector, *fserror.RestErrorCode) {
	all, err := r.store.ListConnectors(ctx, featurestoreID)
	if err != nil {
		return nil, fserror.AsRestErrorCode(err)
	}
	return all, nil
}

// Update replaces the mutable fields of a connector. The variant tag
// is fixed at creation.
func (r *Registry) Update(ctx context.Context, fs catalog.Featurestore, conn catalog.StorageConnector) (catalog.StorageConnector, *fserror.RestErrorCode) {
	existing, fsErr := r.Get(ctx, fs.ID, conn.ID)
	if fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	if conn.Type != "" && conn.Type != existing.Type {
		return catalog.StorageConnector{}, fserror.ILLEGAL_CONNECTOR_TYPE.NewMessagef(
			"the connector type cannot be changed from %s to %s", existing.Type, conn.Type)
	}
	conn.Type = existing.Type
	conn.FeaturestoreID = fs.ID
	if fsErr := r.validate(ctx, fs, &conn); fsErr != nil {
		return catalog.StorageConnector{}, fsErr
	}
	if err := r.store.UpdateConnector(ctx, &conn); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
				"connectorId: %d", conn.ID)
		}
		if errors.Is(err, catalog.ErrDuplicateEntry) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_EXISTS.NewMessagef("name: %s", conn.Name)
		}
		return catalog.StorageConnector{}, fserror.AsRestErrorCode(err)
	}
	return conn, nil
}

// Delete removes a connector unless a feature group or training
// dataset still references it. The reference check and the delete run
// in one atomic catalog operation.
func (r *Registry) Delete(ctx context.Context, featurestoreID int, connectorID int) (catalog.StorageConnector, *fserror.RestErrorCode) {
	conn, err := r.store.DeleteConnector(ctx, featurestoreID, connectorID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_NOT_FOUND.NewMessagef(
				"connectorId: %d", connectorID)
		}
		if errors.Is(err, catalog.ErrInUse) {
			return catalog.StorageConnector{}, fserror.STORAGE_CONNECTOR_IN_USE.NewMessagef(
				"connectorId: %d", connectorID)
		}
		return catalog.StorageConnector{}, fserror.AsRestErrorCode(err)
	}
	return conn, nil
}

// OnlineConnector materializes the implicit JDBC connector of the
// online feature store. It is not a catalog row; the credentials come
// from the online store on every call.
func (r *Registry) OnlineConnector(ctx context.Context, fs catalog.Featurestore) (catalog.StorageConnector, *fserror.RestErrorCode) {
	if r.online == nil {
		return catalog.StorageConnector{}, fserror.ONLINE_FEATURESTORE_NOT_ENABLED.NewMessagef(
			"featurestore: %s", fs.Name)
	}
	creds, err := r.online.Credentials(ctx, fs.Name)
	if err != nil {
		return catalog.StorageConnector{}, fserror.ONLINE_FEATURESTORE_OP_FAILED.NewMessagef(
			"failed fetching online credentials; error: %v", err)
	}
	return catalog.StorageConnector{
		FeaturestoreID:   fs.ID,
		Name:             fs.Name + OnlineConnectorSuffix,
		Description:      "JDBC connector for the online feature store",
		Type:             catalog.ConnectorJDBC,
		ConnectionString: creds.ConnectionString,
		Arguments:        fmt.Sprintf("password=%s,user=%s", creds.Password, creds.User),
	}, nil
}
