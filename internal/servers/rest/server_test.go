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

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/catalog/memory"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/featuregroup"
	"hopsworks.ai/fsms/internal/featurestore"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/metrics"
	"hopsworks.ai/fsms/internal/security/apikey"
	"hopsworks.ai/fsms/internal/stores/storesmock"
	"hopsworks.ai/fsms/internal/trainingdataset"
	"hopsworks.ai/fsms/pkg/api"
)

type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	offline  *storesmock.OfflineStore
	online   *storesmock.OnlineStore
	fsys     *storesmock.FileSystem
	fsEntity catalog.Featurestore
	basePath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	store := memory.New()
	offline := storesmock.NewOfflineStore()
	online := storesmock.NewOnlineStore()
	fsys := storesmock.NewFileSystem("/Projects")

	resolver := featurestore.NewResolver(store, fsys, time.Minute)
	registry := connector.NewRegistry(store, fsys, online)
	featuregroups := featuregroup.NewManager(store, offline, online, fsys, registry,
		3, time.Millisecond, time.Second)
	trainingdatasets := trainingdataset.NewManager(store, fsys, registry,
		3, time.Millisecond, time.Second)

	fsmsMetrics, metricsCleanup := metrics.NewFSMSMetrics()
	t.Cleanup(metricsCleanup)

	router := gin.New()
	registerHandlers(router, &RouteHandler{
		resolver:         resolver,
		registry:         registry,
		featuregroups:    featuregroups,
		trainingdatasets: trainingdatasets,
		apiKeyCache:      apikey.NewCache(apikey.NewStaticRegistry(), time.Minute),
		fsmsMetrics:      fsmsMetrics,
	})

	fs, fsErr := resolver.Provision(context.TODO(), 119, "Sales")
	require.Nil(t, fsErr)

	return &testServer{
		router:   router,
		store:    store,
		offline:  offline,
		online:   online,
		fsys:     fsys,
		fsEntity: fs,
		basePath: fmt.Sprintf("/0.1.0/project/119/featurestores/%d", fs.ID),
	}
}

func (ts *testServer) request(t *testing.T, method string, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, path, reqBody)
	require.NoError(t, err)
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func decodeInto(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), out))
}

func requireErrorCode(t *testing.T, resp *httptest.ResponseRecorder, fsErr *fserror.RestErrorCode) {
	t.Helper()
	require.Equal(t, fsErr.GetStatus(), resp.Code, resp.Body.String())
	body := fserror.ResponseBody{}
	decodeInto(t, resp, &body)
	require.Equal(t, fsErr.GetCode(), body.ErrorCode)
	require.Equal(t, fsErr.GetReason(), body.ErrorMsg)
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodGet, "/0.1.0/ping", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "pong", resp.Body.String())
}

func TestListFeaturestores(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodGet, "/0.1.0/project/119/featurestores", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	dtos := []api.FeaturestoreDTO{}
	decodeInto(t, resp, &dtos)
	require.Len(t, dtos, 1)
	require.Equal(t, "sales_featurestore", dtos[0].FeaturestoreName)
	require.Equal(t, 119, dtos[0].ProjectID)
}

func TestGetFeaturestoreNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodGet, "/0.1.0/project/119/featurestores/9999", nil)
	requireErrorCode(t, resp, fserror.FEATURESTORE_NOT_FOUND)
}

func TestMalformedPathParam(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodGet, "/0.1.0/project/abc/featurestores", nil)
	requireErrorCode(t, resp, fserror.MALFORMED_REQUEST)
}

func TestCreateS3Connector(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/s3",
		api.StorageConnectorRequest{Name: "my s3"})
	requireErrorCode(t, resp, fserror.S3_BUCKET_NOT_PROVIDED)

	resp = ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/s3",
		api.StorageConnectorRequest{Name: "my s3", Bucket: "testbucket"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	dto := api.StorageConnectorDTO{}
	decodeInto(t, resp, &dto)
	require.NotZero(t, dto.ID)
	require.Equal(t, "S3", dto.StorageConnectorType)
	require.Equal(t, "testbucket", dto.Bucket)
}

func TestConnectorTypePathMismatch(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/jdbc",
		api.StorageConnectorRequest{Name: "mysql_src", ConnectionString: "jdbc:mysql://db:3306/src"})
	require.Equal(t, http.StatusCreated, resp.Code)
	dto := api.StorageConnectorDTO{}
	decodeInto(t, resp, &dto)

	// fetching a JDBC connector through the s3 path does not resolve
	resp = ts.request(t, http.MethodGet, fmt.Sprintf("%s/storageconnectors/s3/%d", ts.basePath, dto.ID), nil)
	requireErrorCode(t, resp, fserror.STORAGE_CONNECTOR_NOT_FOUND)

	resp = ts.request(t, http.MethodGet, fmt.Sprintf("%s/storageconnectors/jdbc/%d", ts.basePath, dto.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCreateConnectorUnknownType(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/gcs",
		api.StorageConnectorRequest{Name: "something"})
	requireErrorCode(t, resp, fserror.ILLEGAL_CONNECTOR_TYPE)
}

func TestUpdateAndDeleteConnector(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/s3",
		api.StorageConnectorRequest{Name: "my s3", Bucket: "testbucket"})
	require.Equal(t, http.StatusCreated, resp.Code)
	dto := api.StorageConnectorDTO{}
	decodeInto(t, resp, &dto)

	connPath := fmt.Sprintf("%s/storageconnectors/s3/%d", ts.basePath, dto.ID)
	resp = ts.request(t, http.MethodPut, connPath,
		api.StorageConnectorRequest{Name: "my s3", Bucket: "otherbucket"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decodeInto(t, resp, &dto)
	require.Equal(t, "otherbucket", dto.Bucket)

	// delete returns the removed connector
	resp = ts.request(t, http.MethodDelete, connPath, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeInto(t, resp, &dto)
	require.Equal(t, "my s3", dto.Name)

	resp = ts.request(t, http.MethodGet, connPath, nil)
	requireErrorCode(t, resp, fserror.STORAGE_CONNECTOR_NOT_FOUND)
}

func TestGetOnlineFeaturestoreConnector(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, ts.basePath+"/storageconnectors/onlinefeaturestore", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	dto := api.StorageConnectorDTO{}
	decodeInto(t, resp, &dto)
	require.Equal(t, "sales_featurestore_onlinefeaturestore", dto.Name)
	require.Equal(t, "JDBC", dto.StorageConnectorType)
	require.Contains(t, dto.ConnectionString, "jdbc:mysql://")
	require.Contains(t, dto.Arguments, "user=")
}

func cachedFeaturegroupRequest() api.FeaturegroupRequest {
	return api.FeaturegroupRequest{
		Name:             "card_transactions",
		Version:          1,
		FeaturegroupType: "CACHED_FEATURE_GROUP",
		Features: []api.FeatureDTO{
			{Name: "customer_id", Type: "bigint", Primary: true},
			{Name: "amount", Type: "double"},
		},
	}
}

func TestFeaturegroupLifecycle(t *testing.T) {
	ts := newTestServer(t)
	fgPath := ts.basePath + "/featuregroups"

	resp := ts.request(t, http.MethodGet, fgPath, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	dtos := []api.FeaturegroupDTO{}
	decodeInto(t, resp, &dtos)
	require.Empty(t, dtos)

	resp = ts.request(t, http.MethodPost, fgPath, cachedFeaturegroupRequest())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	dto := api.FeaturegroupDTO{}
	decodeInto(t, resp, &dto)
	require.NotZero(t, dto.ID)
	require.Equal(t, "card_transactions", dto.Name)
	require.Equal(t, "CACHED_FEATURE_GROUP", dto.FeaturegroupType)
	require.NotZero(t, dto.HiveTableID)
	require.True(t, ts.offline.HasTable("sales_featurestore", "card_transactions_1"))

	resp = ts.request(t, http.MethodGet, fgPath, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeInto(t, resp, &dtos)
	require.Len(t, dtos, 1)

	// delete returns the removed entity, then reads miss
	entityPath := fmt.Sprintf("%s/%d", fgPath, dto.ID)
	resp = ts.request(t, http.MethodDelete, entityPath, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	deleted := api.FeaturegroupDTO{}
	decodeInto(t, resp, &deleted)
	require.Equal(t, dto.ID, deleted.ID)
	require.False(t, ts.offline.HasTable("sales_featurestore", "card_transactions_1"))

	resp = ts.request(t, http.MethodGet, entityPath, nil)
	requireErrorCode(t, resp, fserror.FEATUREGROUP_NOT_FOUND)
}

func TestCreateFeaturegroupBadFeatureName(t *testing.T) {
	ts := newTestServer(t)

	request := cachedFeaturegroupRequest()
	request.Features = []api.FeatureDTO{{Name: "--", Type: "int"}}
	resp := ts.request(t, http.MethodPost, ts.basePath+"/featuregroups", request)
	requireErrorCode(t, resp, fserror.ILLEGAL_OFFLINE_SCHEMA)
}

func TestCreateFeaturegroupMissingBody(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodPost, ts.basePath+"/featuregroups", nil)
	requireErrorCode(t, resp, fserror.MALFORMED_REQUEST)
}

func TestCreateOnDemandFeaturegroupMissingQuery(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/jdbc",
		api.StorageConnectorRequest{Name: "mysql_src", ConnectionString: "jdbc:mysql://db:3306/src"})
	require.Equal(t, http.StatusCreated, resp.Code)
	conn := api.StorageConnectorDTO{}
	decodeInto(t, resp, &conn)

	resp = ts.request(t, http.MethodPost, ts.basePath+"/featuregroups", api.FeaturegroupRequest{
		Name:             "external_sales",
		Version:          1,
		FeaturegroupType: "ON_DEMAND_FEATURE_GROUP",
		JDBCConnectorID:  conn.ID,
	})
	requireErrorCode(t, resp, fserror.ON_DEMAND_QUERY_NOT_PROVIDED)

	resp = ts.request(t, http.MethodPost, ts.basePath+"/featuregroups", api.FeaturegroupRequest{
		Name:             "external_sales",
		Version:          1,
		FeaturegroupType: "ON_DEMAND_FEATURE_GROUP",
		Query:            "SELECT * FROM sales",
		JDBCConnectorID:  conn.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	dto := api.FeaturegroupDTO{}
	decodeInto(t, resp, &dto)
	require.Equal(t, "mysql_src", dto.JDBCConnectorName)
	require.Equal(t, "SELECT * FROM sales", dto.Query)
}

func TestCreateOnDemandFeaturegroupMissingConnector(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/featuregroups", api.FeaturegroupRequest{
		Name:             "external_sales",
		Version:          1,
		FeaturegroupType: "ON_DEMAND_FEATURE_GROUP",
		Query:            "SELECT * FROM sales",
	})
	requireErrorCode(t, resp, fserror.JDBC_CONNECTOR_NOT_PROVIDED)
}

func TestFeaturegroupOnlineLifecycle(t *testing.T) {
	ts := newTestServer(t)
	fgPath := ts.basePath + "/featuregroups"

	resp := ts.request(t, http.MethodPost, fgPath, cachedFeaturegroupRequest())
	require.Equal(t, http.StatusCreated, resp.Code)
	dto := api.FeaturegroupDTO{}
	decodeInto(t, resp, &dto)
	entityPath := fmt.Sprintf("%s/%d", fgPath, dto.ID)

	resp = ts.request(t, http.MethodPost, entityPath+"/enableonline", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decodeInto(t, resp, &dto)
	require.True(t, dto.OnlineFeaturegroupEnabled)
	require.NotNil(t, dto.OnlineFeaturegroupDTO)
	require.Equal(t, "sales_featurestore", dto.OnlineFeaturegroupDTO.DBName)
	require.Equal(t, "card_transactions_1", dto.OnlineFeaturegroupDTO.TableName)
	require.True(t, ts.online.HasTable("sales_featurestore", "card_transactions_1"))

	// the schema now carries the online DDL as well
	resp = ts.request(t, http.MethodGet, entityPath+"/schema", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	schemaDTO := api.FeaturegroupSchemaDTO{}
	decodeInto(t, resp, &schemaDTO)
	require.Len(t, schemaDTO.Columns, 2)

	resp = ts.request(t, http.MethodGet, entityPath+"/preview?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	preview := api.FeaturegroupPreviewDTO{}
	decodeInto(t, resp, &preview)
	require.NotNil(t, preview.OfflinePreview)

	resp = ts.request(t, http.MethodPost, entityPath+"/disableonline", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeInto(t, resp, &dto)
	require.False(t, dto.OnlineFeaturegroupEnabled)
	require.False(t, ts.online.HasTable("sales_featurestore", "card_transactions_1"))
}

func TestClearFeaturegroup(t *testing.T) {
	ts := newTestServer(t)
	fgPath := ts.basePath + "/featuregroups"

	resp := ts.request(t, http.MethodPost, fgPath, cachedFeaturegroupRequest())
	require.Equal(t, http.StatusCreated, resp.Code)
	dto := api.FeaturegroupDTO{}
	decodeInto(t, resp, &dto)

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("%s/%d/clear", fgPath, dto.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.True(t, ts.offline.HasTable("sales_featurestore", "card_transactions_1"))
}

func TestUpdateFeaturegroupMetadata(t *testing.T) {
	ts := newTestServer(t)
	fgPath := ts.basePath + "/featuregroups"

	resp := ts.request(t, http.MethodPost, fgPath, cachedFeaturegroupRequest())
	require.Equal(t, http.StatusCreated, resp.Code)
	dto := api.FeaturegroupDTO{}
	decodeInto(t, resp, &dto)

	resp = ts.request(t, http.MethodPut, fmt.Sprintf("%s/%d", fgPath, dto.ID),
		api.FeaturegroupUpdateRequest{Description: "card swipes"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decodeInto(t, resp, &dto)
	require.Equal(t, "card swipes", dto.Description)

	// renaming a cached group is rejected
	resp = ts.request(t, http.MethodPut, fmt.Sprintf("%s/%d", fgPath, dto.ID),
		api.FeaturegroupUpdateRequest{Name: "renamed"})
	requireErrorCode(t, resp, fserror.ILLEGAL_OFFLINE_TABLE_NAME)
}

func TestTrainingDatasetLifecycle(t *testing.T) {
	ts := newTestServer(t)
	tdPath := ts.basePath + "/trainingdatasets"

	connectors, err := ts.store.ListConnectors(context.TODO(), ts.fsEntity.ID)
	require.NoError(t, err)
	require.Len(t, connectors, 1)
	hopsfsConnector := connectors[0]

	// a HopsFS dataset needs its connector
	resp := ts.request(t, http.MethodPost, tdPath, api.TrainingDatasetRequest{
		Name:                "churn_model_data",
		Version:             1,
		TrainingDatasetType: "HOPSFS_TRAINING_DATASET",
		DataFormat:          "parquet",
	})
	requireErrorCode(t, resp, fserror.HOPSFS_CONNECTOR_NOT_PROVIDED)

	resp = ts.request(t, http.MethodPost, tdPath, api.TrainingDatasetRequest{
		Name:                "churn_model_data",
		Version:             1,
		TrainingDatasetType: "HOPSFS_TRAINING_DATASET",
		DataFormat:          "parquet",
		HopsfsConnectorID:   hopsfsConnector.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	dto := api.TrainingDatasetDTO{}
	decodeInto(t, resp, &dto)
	require.Equal(t, "churn_model_data", dto.Name)
	require.Equal(t, hopsfsConnector.Name, dto.HopsfsConnectorName)
	require.Contains(t, dto.Location, "churn_model_data_1")
	require.True(t, ts.fsys.HasPath(dto.HdfsStorePath))

	entityPath := fmt.Sprintf("%s/%d", tdPath, dto.ID)
	resp = ts.request(t, http.MethodPut, entityPath,
		api.TrainingDatasetUpdateRequest{Description: "retrained monthly"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeInto(t, resp, &dto)
	require.Equal(t, "retrained monthly", dto.Description)

	resp = ts.request(t, http.MethodDelete, entityPath, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.False(t, ts.fsys.HasPath(dto.HdfsStorePath))

	resp = ts.request(t, http.MethodGet, entityPath, nil)
	requireErrorCode(t, resp, fserror.TRAINING_DATASET_NOT_FOUND)
}

func TestCreateExternalTrainingDataset(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, ts.basePath+"/storageconnectors/s3",
		api.StorageConnectorRequest{Name: "my s3", Bucket: "testbucket"})
	require.Equal(t, http.StatusCreated, resp.Code)
	conn := api.StorageConnectorDTO{}
	decodeInto(t, resp, &conn)

	resp = ts.request(t, http.MethodPost, ts.basePath+"/trainingdatasets", api.TrainingDatasetRequest{
		Name:                "churn_model_data",
		Version:             1,
		TrainingDatasetType: "EXTERNAL_TRAINING_DATASET",
		DataFormat:          "csv",
		S3ConnectorID:       conn.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	dto := api.TrainingDatasetDTO{}
	decodeInto(t, resp, &dto)
	require.Equal(t, "s3://testbucket/churn_model_data_1", dto.Location)
	require.Equal(t, "my s3", dto.S3ConnectorName)
	require.Empty(t, dto.HdfsStorePath)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// generate some traffic first
	resp := ts.request(t, http.MethodGet, "/0.1.0/ping", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.request(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "fsms_http_response_status_count")
}
