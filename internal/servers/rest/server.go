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
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/featuregroup"
	"hopsworks.ai/fsms/internal/featurestore"
	"hopsworks.ai/fsms/internal/fserror"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/metrics"
	"hopsworks.ai/fsms/internal/security/apikey"
	"hopsworks.ai/fsms/internal/trainingdataset"
)

type FSMSRestServer struct {
	server *http.Server
}

func New(
	host string,
	port uint16,
	tlsConfig *tls.Config,
	resolver *featurestore.Resolver,
	registry *connector.Registry,
	featuregroups *featuregroup.Manager,
	trainingdatasets *trainingdataset.Manager,
	apiKeyCache *apikey.Cache,
	fsmsMetrics *metrics.FSMSMetrics,
) *FSMSRestServer {
	restApiAddress := fmt.Sprintf("%s:%d", host, port)
	log.Infof("Initialising REST API server with network address: '%s'", restApiAddress)
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routeHandler := &RouteHandler{
		resolver:         resolver,
		registry:         registry,
		featuregroups:    featuregroups,
		trainingdatasets: trainingdatasets,
		apiKeyCache:      apiKeyCache,
		fsmsMetrics:      fsmsMetrics,
	}
	registerHandlers(router, routeHandler)
	return &FSMSRestServer{
		server: &http.Server{
			Addr:      restApiAddress,
			Handler:   router,
			TLSConfig: tlsConfig,
			ConnState: fsmsMetrics.HTTPMetrics.HttpConnectionGauge.OnStateChange,
		},
	}
}

func (s *FSMSRestServer) Start(quit chan os.Signal) (cleanupFunc func()) {
	go func() {
		var err error
		conf := config.GetAll()
		if conf.Security.EnableTLS {
			err = s.server.ListenAndServeTLS(
				conf.Security.CertificateFile,
				conf.Security.PrivateKeyFile,
			)
		} else {
			err = s.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("REST server closed")
		} else if err != nil {
			log.Errorf("REST server failed; error: %v", err)
			quit <- syscall.SIGINT
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.server.Shutdown(ctx)
		if err != nil {
			log.Errorf("failed shutting down REST API server; error: %v", err)
		}
	}
}

type RouteHandler struct {
	resolver         *featurestore.Resolver
	registry         *connector.Registry
	featuregroups    *featuregroup.Manager
	trainingdatasets *trainingdataset.Manager
	apiKeyCache      *apikey.Cache
	fsmsMetrics      *metrics.FSMSMetrics
}

func registerHandlers(router *gin.Engine, routeHandler *RouteHandler) {
	router.Use(ErrorHandler)
	router.Use(LogHandler(routeHandler.fsmsMetrics.HTTPMetrics))

	versionGroup := router.Group(config.VERSION_GROUP)

	// ping
	versionGroup.GET("/"+config.PING_OPERATION, routeHandler.Ping)

	// prometheus
	router.GET("/metrics", routeHandler.Metrics)

	catalogGroup := versionGroup.Group("")
	catalogGroup.Use(routeHandler.APIKeyHandler)

	// feature stores
	catalogGroup.GET("/"+config.FEATURESTORES_EP, routeHandler.ListFeaturestores)
	catalogGroup.GET("/"+config.FEATURESTORE_EP, routeHandler.GetFeaturestore)

	// storage connectors
	catalogGroup.GET("/"+config.STORAGE_CONNECTORS_EP, routeHandler.ListStorageConnectors)
	catalogGroup.GET("/"+config.ONLINE_FEATURESTORE_CONNECTOR_EP, routeHandler.GetOnlineFeaturestoreConnector)
	catalogGroup.POST("/"+config.STORAGE_CONNECTOR_TYPE_EP, routeHandler.CreateStorageConnector)
	catalogGroup.GET("/"+config.STORAGE_CONNECTOR_EP, routeHandler.GetStorageConnector)
	catalogGroup.PUT("/"+config.STORAGE_CONNECTOR_EP, routeHandler.UpdateStorageConnector)
	catalogGroup.DELETE("/"+config.STORAGE_CONNECTOR_EP, routeHandler.DeleteStorageConnector)

	// feature groups
	catalogGroup.GET("/"+config.FEATUREGROUPS_EP, routeHandler.ListFeaturegroups)
	catalogGroup.POST("/"+config.FEATUREGROUPS_EP, routeHandler.CreateFeaturegroup)
	catalogGroup.GET("/"+config.FEATUREGROUP_EP, routeHandler.GetFeaturegroup)
	catalogGroup.PUT("/"+config.FEATUREGROUP_EP, routeHandler.UpdateFeaturegroup)
	catalogGroup.DELETE("/"+config.FEATUREGROUP_EP, routeHandler.DeleteFeaturegroup)
	catalogGroup.GET("/"+config.FEATUREGROUP_EP+"/preview", routeHandler.PreviewFeaturegroup)
	catalogGroup.GET("/"+config.FEATUREGROUP_EP+"/schema", routeHandler.FeaturegroupSchema)
	catalogGroup.POST("/"+config.FEATUREGROUP_EP+"/clear", routeHandler.ClearFeaturegroup)
	catalogGroup.POST("/"+config.FEATUREGROUP_EP+"/enableonline", routeHandler.EnableOnlineFeaturegroup)
	catalogGroup.POST("/"+config.FEATUREGROUP_EP+"/disableonline", routeHandler.DisableOnlineFeaturegroup)

	// training datasets
	catalogGroup.GET("/"+config.TRAINING_DATASETS_EP, routeHandler.ListTrainingDatasets)
	catalogGroup.POST("/"+config.TRAINING_DATASETS_EP, routeHandler.CreateTrainingDataset)
	catalogGroup.GET("/"+config.TRAINING_DATASET_EP, routeHandler.GetTrainingDataset)
	catalogGroup.PUT("/"+config.TRAINING_DATASET_EP, routeHandler.UpdateTrainingDataset)
	catalogGroup.DELETE("/"+config.TRAINING_DATASET_EP, routeHandler.DeleteTrainingDataset)
}

func LogHandler(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UnixNano()
		c.Next()
		defer m.AddResponseTime(c.FullPath(), c.Request.Method, float64(time.Now().UnixNano()-start))
		defer m.AddResponseStatus(c.FullPath(), c.Request.Method, c.Writer.Status())
	}
}

// ErrorHandler renders the last error of the request as the JSON error
// body. Errors that are not RestErrorCodes map to the generic internal
// code so store detail never leaks to clients.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if log.IsDebug() {
		for i, ginErr := range c.Errors {
			log.Debugf("GIN error nr %d: %s", i, ginErr.Error())
		}
	}

	if len(c.Errors) > 0 {
		fsErr := fserror.AsRestErrorCode(c.Errors[len(c.Errors)-1].Err)
		// status -1 doesn't overwrite the existing status code
		c.JSON(-1, fsErr.GetResponseBody())
	}
}

// APIKeyHandler enforces Hopsworks API keys when enabled in the
// configuration.
func (h *RouteHandler) APIKeyHandler(c *gin.Context) {
	conf := config.GetAll()
	if !conf.Security.UseHopsworksAPIKeys {
		return
	}
	apiKey := c.GetHeader(config.API_KEY_NAME)
	user, err := h.apiKeyCache.ValidateAPIKey(apiKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Set("user", user)
}

func abortWithError(c *gin.Context, fsErr *fserror.RestErrorCode) {
	c.AbortWithError(fsErr.GetStatus(), fsErr)
}
