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

package connector

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/catalog/memory"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/stores/storesmock"
)

func newTestRegistry(t *testing.T) (*Registry, catalog.Featurestore, *storesmock.FileSystem) {
	t.Helper()
	store := memory.New()
	fileSystem := storesmock.NewFileSystem("/Projects")
	registry := NewRegistry(store, fileSystem, storesmock.NewOnlineStore())

	fs := catalog.Featurestore{ProjectID: 119, ProjectName: "sales", Name: "sales_featurestore"}
	require.NoError(t, store.CreateFeaturestore(context.TODO(), &fs))
	return registry, fs, fileSystem
}

func TestCreateS3Connector(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	_, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name: "my s3",
		Type: catalog.ConnectorS3,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.S3_BUCKET_NOT_PROVIDED.GetCode(), fsErr.GetCode())

	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:   "my s3",
		Type:   catalog.ConnectorS3,
		Bucket: "testbucket",
	})
	require.Nil(t, fsErr)
	require.NotZero(t, conn.ID)
	require.Equal(t, "testbucket", conn.Bucket)

	// connector names are unique per feature store
	_, fsErr = registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:   "my s3",
		Type:   catalog.ConnectorS3,
		Bucket: "otherbucket",
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.STORAGE_CONNECTOR_EXISTS.GetCode(), fsErr.GetCode())
}

func TestCreateJDBCConnector(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	_, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name: "mysql_src",
		Type: catalog.ConnectorJDBC,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.JDBC_CONNECTION_STRING_NOT_PROVIDED.GetCode(), fsErr.GetCode())

	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:             "mysql_src",
		Type:             catalog.ConnectorJDBC,
		ConnectionString: "jdbc:mysql://db:3306/src",
		Arguments:        "useSSL=false",
	})
	require.Nil(t, fsErr)
	require.Equal(t, "useSSL=false", conn.Arguments)
}

func TestCreateHopsFSConnector(t *testing.T) {
	registry, fs, fileSystem := newTestRegistry(t)

	// the referenced dataset must exist
	_, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:        "raw_data",
		Type:        catalog.ConnectorHopsFS,
		DatasetName: "Raw_Data",
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.HOPSFS_DATASET_NOT_FOUND.GetCode(), fsErr.GetCode())

	fileSystem.AddDataset("sales", "Raw_Data")
	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:        "raw_data",
		Type:        catalog.ConnectorHopsFS,
		DatasetName: "Raw_Data",
	})
	require.Nil(t, fsErr)
	require.Equal(t, "/Projects/sales/Raw_Data", conn.HopsfsPath)
}

func TestCreateConnectorIllegalType(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	_, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name: "something",
		Type: "GCS",
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_CONNECTOR_TYPE.GetCode(), fsErr.GetCode())

	_, fsErr = registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name: "",
		Type: catalog.ConnectorS3,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_STORAGE_CONNECTOR_NAME.GetCode(), fsErr.GetCode())
}

func TestUpdateConnector(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:   "my s3",
		Type:   catalog.ConnectorS3,
		Bucket: "testbucket",
	})
	require.Nil(t, fsErr)

	conn.Bucket = "otherbucket"
	conn.Description = "bucket moved"
	updated, fsErr := registry.Update(context.TODO(), fs, conn)
	require.Nil(t, fsErr)
	require.Equal(t, "otherbucket", updated.Bucket)
	require.Equal(t, "bucket moved", updated.Description)

	// the variant tag is fixed at creation
	conn.Type = catalog.ConnectorJDBC
	_, fsErr = registry.Update(context.TODO(), fs, conn)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_CONNECTOR_TYPE.GetCode(), fsErr.GetCode())
}

func TestDeleteConnector(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:   "my s3",
		Type:   catalog.ConnectorS3,
		Bucket: "testbucket",
	})
	require.Nil(t, fsErr)

	deleted, fsErr := registry.Delete(context.TODO(), fs.ID, conn.ID)
	require.Nil(t, fsErr)
	require.Equal(t, conn.ID, deleted.ID)

	_, fsErr = registry.Get(context.TODO(), fs.ID, conn.ID)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.STORAGE_CONNECTOR_NOT_FOUND.GetCode(), fsErr.GetCode())
	require.Equal(t, http.StatusNotFound, fsErr.GetStatus())
}

func TestDeleteConnectorInUse(t *testing.T) {
	store := memory.New()
	registry := NewRegistry(store, storesmock.NewFileSystem("/Projects"), storesmock.NewOnlineStore())

	fs := catalog.Featurestore{ProjectID: 119, ProjectName: "sales", Name: "sales_featurestore"}
	require.NoError(t, store.CreateFeaturestore(context.TODO(), &fs))

	conn, fsErr := registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:             "mysql_src",
		Type:             catalog.ConnectorJDBC,
		ConnectionString: "jdbc:mysql://db:3306/src",
	})
	require.Nil(t, fsErr)

	fg := catalog.Featuregroup{
		FeaturestoreID:  fs.ID,
		Name:            "external_sales",
		Version:         1,
		Type:            catalog.FeaturegroupOnDemand,
		Query:           "SELECT * FROM sales",
		JDBCConnectorID: conn.ID,
	}
	require.NoError(t, store.CreateFeaturegroup(context.TODO(), &fg))

	_, fsErr = registry.Delete(context.TODO(), fs.ID, conn.ID)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.STORAGE_CONNECTOR_IN_USE.GetCode(), fsErr.GetCode())
}

func TestOnlineConnector(t *testing.T) {
	registry, fs, _ := newTestRegistry(t)

	conn, fsErr := registry.OnlineConnector(context.TODO(), fs)
	require.Nil(t, fsErr)
	require.Equal(t, "sales_featurestore"+OnlineConnectorSuffix, conn.Name)
	require.Equal(t, catalog.ConnectorJDBC, conn.Type)
	require.Contains(t, conn.ConnectionString, "jdbc:mysql://")
	require.Contains(t, conn.Arguments, "user=")
	require.Contains(t, conn.Arguments, "password=")
}

func TestOnlineConnectorNotEnabled(t *testing.T) {
	store := memory.New()
	registry := NewRegistry(store, storesmock.NewFileSystem("/Projects"), nil)

	fs := catalog.Featurestore{ProjectID: 119, ProjectName: "sales", Name: "sales_featurestore"}
	require.NoError(t, store.CreateFeaturestore(context.TODO(), &fs))

	_, fsErr := registry.OnlineConnector(context.TODO(), fs)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ONLINE_FEATURESTORE_NOT_ENABLED.GetCode(), fsErr.GetCode())
}
