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

package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hopsworks.ai/fsms/internal/catalog"
)

func newFeaturestore(t *testing.T, store *Store, projectID int, projectName string) catalog.Featurestore {
	t.Helper()
	fs := catalog.Featurestore{
		ProjectID:   projectID,
		ProjectName: projectName,
		Name:        projectName + "_featurestore",
	}
	require.NoError(t, store.CreateFeaturestore(context.TODO(), &fs))
	return fs
}

func TestFeaturestoreCRUD(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")
	require.NotZero(t, fs.ID)
	require.False(t, fs.Created.IsZero())

	// one feature store per project
	dup := catalog.Featurestore{ProjectID: 119, ProjectName: "sales", Name: "sales_featurestore"}
	require.ErrorIs(t, store.CreateFeaturestore(context.TODO(), &dup), catalog.ErrDuplicateEntry)

	all, err := store.FeaturestoresByProject(context.TODO(), 119)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := store.GetFeaturestore(context.TODO(), 119, fs.ID)
	require.NoError(t, err)
	require.Equal(t, "sales_featurestore", got.Name)

	// wrong project scope does not resolve
	_, err = store.GetFeaturestore(context.TODO(), 120, fs.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestConnectorCRUD(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	conn := catalog.StorageConnector{
		FeaturestoreID: fs.ID,
		Name:           "my_s3",
		Type:           catalog.ConnectorS3,
		Bucket:         "testbucket",
	}
	require.NoError(t, store.CreateConnector(context.TODO(), &conn))
	require.NotZero(t, conn.ID)

	// duplicate names are matched ignoring case
	dup := catalog.StorageConnector{FeaturestoreID: fs.ID, Name: "MY_S3", Type: catalog.ConnectorS3, Bucket: "b"}
	require.ErrorIs(t, store.CreateConnector(context.TODO(), &dup), catalog.ErrDuplicateEntry)

	conn.Bucket = "otherbucket"
	require.NoError(t, store.UpdateConnector(context.TODO(), &conn))
	got, err := store.GetConnector(context.TODO(), fs.ID, conn.ID)
	require.NoError(t, err)
	require.Equal(t, "otherbucket", got.Bucket)

	missing := catalog.StorageConnector{ID: 9999, FeaturestoreID: fs.ID, Name: "x"}
	require.ErrorIs(t, store.UpdateConnector(context.TODO(), &missing), catalog.ErrNotFound)

	deleted, err := store.DeleteConnector(context.TODO(), fs.ID, conn.ID)
	require.NoError(t, err)
	require.Equal(t, conn.ID, deleted.ID)
	_, err = store.GetConnector(context.TODO(), fs.ID, conn.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteConnectorInUse(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	jdbc := catalog.StorageConnector{
		FeaturestoreID:   fs.ID,
		Name:             "mysql_src",
		Type:             catalog.ConnectorJDBC,
		ConnectionString: "jdbc:mysql://db:3306/src",
	}
	require.NoError(t, store.CreateConnector(context.TODO(), &jdbc))

	fg := catalog.Featuregroup{
		FeaturestoreID:  fs.ID,
		Name:            "external_sales",
		Version:         1,
		Type:            catalog.FeaturegroupOnDemand,
		Query:           "SELECT * FROM sales",
		JDBCConnectorID: jdbc.ID,
	}
	require.NoError(t, store.CreateFeaturegroup(context.TODO(), &fg))

	_, err := store.DeleteConnector(context.TODO(), fs.ID, jdbc.ID)
	require.ErrorIs(t, err, catalog.ErrInUse)

	_, err = store.DeleteFeaturegroup(context.TODO(), fs.ID, fg.ID)
	require.NoError(t, err)
	_, err = store.DeleteConnector(context.TODO(), fs.ID, jdbc.ID)
	require.NoError(t, err)
}

func TestCreateFeaturegroupResolvesConnector(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	fg := catalog.Featuregroup{
		FeaturestoreID:  fs.ID,
		Name:            "external_sales",
		Version:         1,
		Type:            catalog.FeaturegroupOnDemand,
		JDBCConnectorID: 424242,
	}
	require.ErrorIs(t, store.CreateFeaturegroup(context.TODO(), &fg), catalog.ErrNotFound)
}

func TestFeaturegroupUniqueness(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	fg := catalog.Featuregroup{
		FeaturestoreID: fs.ID,
		Name:           "card_transactions",
		Version:        1,
		Type:           catalog.FeaturegroupCached,
		Features:       []catalog.Feature{{Name: "id", Type: "bigint", Primary: true}},
	}
	require.NoError(t, store.CreateFeaturegroup(context.TODO(), &fg))

	dup := catalog.Featuregroup{FeaturestoreID: fs.ID, Name: "Card_Transactions", Version: 1, Type: catalog.FeaturegroupCached}
	require.ErrorIs(t, store.CreateFeaturegroup(context.TODO(), &dup), catalog.ErrDuplicateEntry)

	// a new version of the same name is a distinct entity
	v2 := catalog.Featuregroup{FeaturestoreID: fs.ID, Name: "card_transactions", Version: 2, Type: catalog.FeaturegroupCached}
	require.NoError(t, store.CreateFeaturegroup(context.TODO(), &v2))

	exists, err := store.FeaturegroupExists(context.TODO(), fs.ID, "CARD_TRANSACTIONS", 1)
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = store.FeaturegroupExists(context.TODO(), fs.ID, "card_transactions", 3)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestFeaturegroupIsolation(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	fg := catalog.Featuregroup{
		FeaturestoreID: fs.ID,
		Name:           "card_transactions",
		Version:        1,
		Type:           catalog.FeaturegroupCached,
		Features:       []catalog.Feature{{Name: "id", Type: "bigint", Primary: true}},
	}
	require.NoError(t, store.CreateFeaturegroup(context.TODO(), &fg))

	// mutating a returned copy must not leak into the store
	got, err := store.GetFeaturegroup(context.TODO(), fs.ID, fg.ID)
	require.NoError(t, err)
	got.Features[0].Name = "mutated"

	again, err := store.GetFeaturegroup(context.TODO(), fs.ID, fg.ID)
	require.NoError(t, err)
	require.Equal(t, "id", again.Features[0].Name)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fg := catalog.Featuregroup{
				FeaturestoreID: fs.ID,
				Name:           "card_transactions",
				Version:        1,
				Type:           catalog.FeaturegroupCached,
			}
			errs[i] = store.CreateFeaturegroup(context.TODO(), &fg)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, catalog.ErrDuplicateEntry)
		}
	}
	require.Equal(t, 1, winners)

	all, err := store.ListFeaturegroups(context.TODO(), fs.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestTrainingDatasetCRUD(t *testing.T) {
	store := New()
	fs := newFeaturestore(t, store, 119, "sales")

	hopsfs := catalog.StorageConnector{
		FeaturestoreID: fs.ID,
		Name:           "sales_Training_Datasets",
		Type:           catalog.ConnectorHopsFS,
		DatasetName:    "sales_Training_Datasets",
		HopsfsPath:     "/Projects/sales/sales_Training_Datasets",
	}
	require.NoError(t, store.CreateConnector(context.TODO(), &hopsfs))

	td := catalog.TrainingDataset{
		FeaturestoreID: fs.ID,
		Name:           "churn_model_data",
		Version:        1,
		Type:           catalog.TrainingDatasetHopsFS,
		DataFormat:     "parquet",
		ConnectorID:    hopsfs.ID,
	}
	require.NoError(t, store.CreateTrainingDataset(context.TODO(), &td))

	dup := catalog.TrainingDataset{FeaturestoreID: fs.ID, Name: "Churn_Model_Data", Version: 1, Type: catalog.TrainingDatasetHopsFS, ConnectorID: hopsfs.ID}
	require.ErrorIs(t, store.CreateTrainingDataset(context.TODO(), &dup), catalog.ErrDuplicateEntry)

	// the referenced connector must exist
	orphan := catalog.TrainingDataset{FeaturestoreID: fs.ID, Name: "orphan", Version: 1, Type: catalog.TrainingDatasetHopsFS, ConnectorID: 9999}
	require.ErrorIs(t, store.CreateTrainingDataset(context.TODO(), &orphan), catalog.ErrNotFound)

	td.Description = "monthly churn snapshot"
	require.NoError(t, store.UpdateTrainingDataset(context.TODO(), &td))
	got, err := store.GetTrainingDataset(context.TODO(), fs.ID, td.ID)
	require.NoError(t, err)
	require.Equal(t, "monthly churn snapshot", got.Description)

	deleted, err := store.DeleteTrainingDataset(context.TODO(), fs.ID, td.ID)
	require.NoError(t, err)
	require.Equal(t, td.ID, deleted.ID)
	_, err = store.GetTrainingDataset(context.TODO(), fs.ID, td.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}
