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

package trainingdataset

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/catalog/memory"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/stores/storesmock"
)

type testEnv struct {
	store    *memory.Store
	fs       *storesmock.FileSystem
	registry *connector.Registry
	manager  *Manager
	fsEntity catalog.Featurestore
	hopsfs   catalog.StorageConnector
	s3       catalog.StorageConnector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: memory.New(),
		fs:    storesmock.NewFileSystem("/Projects"),
	}
	env.registry = connector.NewRegistry(env.store, env.fs, storesmock.NewOnlineStore())
	env.manager = NewManager(env.store, env.fs, env.registry, 3, time.Millisecond, time.Second)

	fs := catalog.Featurestore{ProjectID: 119, ProjectName: "sales", Name: "sales_featurestore"}
	require.NoError(t, env.store.CreateFeaturestore(context.TODO(), &fs))
	env.fsEntity = fs

	env.fs.AddDataset("sales", "sales_Training_Datasets")
	hopsfs, fsErr := env.registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:        "sales_Training_Datasets",
		Type:        catalog.ConnectorHopsFS,
		DatasetName: "sales_Training_Datasets",
	})
	require.Nil(t, fsErr)
	env.hopsfs = hopsfs

	s3, fsErr := env.registry.Create(context.TODO(), fs, catalog.StorageConnector{
		Name:   "my s3",
		Type:   catalog.ConnectorS3,
		Bucket: "testbucket",
	})
	require.Nil(t, fsErr)
	env.s3 = s3
	return env
}

func TestCreateHopsFSTrainingDataset(t *testing.T) {
	env := newTestEnv(t)

	td, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		DataFormat:  "parquet",
		ConnectorID: env.hopsfs.ID,
	})
	require.Nil(t, fsErr)
	require.NotZero(t, td.ID)
	require.Equal(t, "/Projects/sales/sales_Training_Datasets/churn_model_data_1", td.HdfsStorePath)
	require.Equal(t, td.HdfsStorePath, td.Location)
	require.NotZero(t, td.InodeID)
	require.True(t, env.fs.HasPath(td.HdfsStorePath))
}

func TestCreateHopsFSTrainingDatasetMissingConnector(t *testing.T) {
	env := newTestEnv(t)

	_, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:       "churn_model_data",
		Version:    1,
		Type:       catalog.TrainingDatasetHopsFS,
		DataFormat: "parquet",
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.HOPSFS_CONNECTOR_NOT_PROVIDED.GetCode(), fsErr.GetCode())
	require.Equal(t, http.StatusUnprocessableEntity, fsErr.GetStatus())
}

func TestCreateHopsFSTrainingDatasetWrongConnectorType(t *testing.T) {
	env := newTestEnv(t)

	_, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		DataFormat:  "parquet",
		ConnectorID: env.s3.ID,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.HOPSFS_CONNECTOR_NOT_PROVIDED.GetCode(), fsErr.GetCode())
}

func TestCreateExternalTrainingDataset(t *testing.T) {
	env := newTestEnv(t)

	td, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     2,
		Type:        catalog.TrainingDatasetExternal,
		DataFormat:  "csv",
		ConnectorID: env.s3.ID,
	})
	require.Nil(t, fsErr)
	require.Equal(t, "s3://testbucket/churn_model_data_2", td.Location)
	require.Empty(t, td.HdfsStorePath)
}

func TestCreateExternalTrainingDatasetMissingConnector(t *testing.T) {
	env := newTestEnv(t)

	_, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:       "churn_model_data",
		Version:    1,
		Type:       catalog.TrainingDatasetExternal,
		DataFormat: "csv",
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.S3_CONNECTOR_NOT_PROVIDED.GetCode(), fsErr.GetCode())

	// a HopsFS connector cannot back an external dataset
	_, fsErr = env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetExternal,
		DataFormat:  "csv",
		ConnectorID: env.hopsfs.ID,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.S3_CONNECTOR_NOT_PROVIDED.GetCode(), fsErr.GetCode())
}

func TestCreateTrainingDatasetMissingDataFormat(t *testing.T) {
	env := newTestEnv(t)

	_, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		ConnectorID: env.hopsfs.ID,
	})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.TRAINING_DATASET_DATA_FORMAT_NOT_PROVIDED.GetCode(), fsErr.GetCode())
}

func TestCreateTrainingDatasetDuplicate(t *testing.T) {
	env := newTestEnv(t)

	td := catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		DataFormat:  "parquet",
		ConnectorID: env.hopsfs.ID,
	}
	_, fsErr := env.manager.Create(context.TODO(), env.fsEntity, td)
	require.Nil(t, fsErr)

	_, fsErr = env.manager.Create(context.TODO(), env.fsEntity, td)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.TRAINING_DATASET_EXISTS.GetCode(), fsErr.GetCode())
}

func TestUpdateTrainingDataset(t *testing.T) {
	env := newTestEnv(t)

	td, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		DataFormat:  "parquet",
		ConnectorID: env.hopsfs.ID,
	})
	require.Nil(t, fsErr)

	updated, fsErr := env.manager.Update(context.TODO(), env.fsEntity, td.ID, MetadataUpdate{
		Name:        "churn_model_data_v2",
		Description: "retrained monthly",
	})
	require.Nil(t, fsErr)
	require.Equal(t, "churn_model_data_v2", updated.Name)
	require.Equal(t, "retrained monthly", updated.Description)
	// the provisioned directory keeps the creation name
	require.Equal(t, td.HdfsStorePath, updated.HdfsStorePath)
	require.True(t, env.fs.HasPath(td.HdfsStorePath))
}

func TestUpdateTrainingDatasetRenameCollision(t *testing.T) {
	env := newTestEnv(t)

	first, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name: "model_a", Version: 1, Type: catalog.TrainingDatasetHopsFS,
		DataFormat: "parquet", ConnectorID: env.hopsfs.ID,
	})
	require.Nil(t, fsErr)
	_, fsErr = env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name: "model_b", Version: 1, Type: catalog.TrainingDatasetHopsFS,
		DataFormat: "parquet", ConnectorID: env.hopsfs.ID,
	})
	require.Nil(t, fsErr)

	_, fsErr = env.manager.Update(context.TODO(), env.fsEntity, first.ID, MetadataUpdate{Name: "model_b"})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.TRAINING_DATASET_EXISTS.GetCode(), fsErr.GetCode())
}

func TestDeleteTrainingDataset(t *testing.T) {
	env := newTestEnv(t)

	td, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetHopsFS,
		DataFormat:  "parquet",
		ConnectorID: env.hopsfs.ID,
	})
	require.Nil(t, fsErr)

	deleted, fsErr := env.manager.Delete(context.TODO(), env.fsEntity, td.ID)
	require.Nil(t, fsErr)
	require.Equal(t, td.ID, deleted.ID)
	require.False(t, env.fs.HasPath(td.HdfsStorePath))

	_, fsErr = env.manager.Get(context.TODO(), env.fsEntity.ID, td.ID)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.TRAINING_DATASET_NOT_FOUND.GetCode(), fsErr.GetCode())
}

func TestDeleteExternalTrainingDatasetKeepsData(t *testing.T) {
	env := newTestEnv(t)

	td, fsErr := env.manager.Create(context.TODO(), env.fsEntity, catalog.TrainingDataset{
		Name:        "churn_model_data",
		Version:     1,
		Type:        catalog.TrainingDatasetExternal,
		DataFormat:  "csv",
		ConnectorID: env.s3.ID,
	})
	require.Nil(t, fsErr)

	_, fsErr = env.manager.Delete(context.TODO(), env.fsEntity, td.ID)
	require.Nil(t, fsErr)
	_, fsErr = env.manager.Get(context.TODO(), env.fsEntity.ID, td.ID)
	require.NotNil(t, fsErr)
}
