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

// Package servers wires the configured backends together and runs the
// REST server.
package servers

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/catalog/memory"
	"hopsworks.ai/fsms/internal/catalog/mysqlcat"
	"hopsworks.ai/fsms/internal/config"
	"hopsworks.ai/fsms/internal/connector"
	"hopsworks.ai/fsms/internal/featuregroup"
	"hopsworks.ai/fsms/internal/featurestore"
	"hopsworks.ai/fsms/internal/log"
	"hopsworks.ai/fsms/internal/metrics"
	"hopsworks.ai/fsms/internal/security/apikey"
	"hopsworks.ai/fsms/internal/servers/rest"
	"hopsworks.ai/fsms/internal/stores"
	"hopsworks.ai/fsms/internal/stores/offlinesql"
	"hopsworks.ai/fsms/internal/stores/onlinemysql"
	"hopsworks.ai/fsms/internal/stores/storesmock"
	"hopsworks.ai/fsms/internal/trainingdataset"
)

func CreateAndStartDefaultServers(quit chan os.Signal) (err error, cleanup func()) {
	cleanup = func() {}
	conf := config.GetAll()

	var store catalog.Store
	actualCleanup := func() {}
	switch conf.Catalog.Backend {
	case config.BackendMySQL:
		catalogStore, connErr := mysqlcat.Connect(conf.Catalog)
		if connErr != nil {
			return connErr, cleanup
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err = catalogStore.InitSchema(ctx); err != nil {
			catalogStore.Close()
			return err, cleanup
		}
		store = catalogStore
		actualCleanup = func() {
			if closeErr := catalogStore.Close(); closeErr != nil {
				log.Error(closeErr.Error())
			}
		}
	default:
		store = memory.New()
	}

	var offline stores.OfflineStore
	switch conf.OfflineStore.Backend {
	case config.BackendSQL:
		offlineClient, connErr := offlinesql.Connect(conf.OfflineStore)
		if connErr != nil {
			actualCleanup()
			return connErr, cleanup
		}
		offline = offlineClient
		previousCleanup := actualCleanup
		actualCleanup = func() {
			if closeErr := offlineClient.Close(); closeErr != nil {
				log.Error(closeErr.Error())
			}
			previousCleanup()
		}
	default:
		offline = storesmock.NewOfflineStore()
	}

	var online stores.OnlineStore
	switch conf.OnlineStore.Backend {
	case config.BackendMySQL:
		onlineClient, connErr := onlinemysql.Connect(conf.OnlineStore)
		if connErr != nil {
			actualCleanup()
			return connErr, cleanup
		}
		online = onlineClient
		previousCleanup := actualCleanup
		actualCleanup = func() {
			if closeErr := onlineClient.Close(); closeErr != nil {
				log.Error(closeErr.Error())
			}
			previousCleanup()
		}
	default:
		online = storesmock.NewOnlineStore()
	}

	fileSystem := storesmock.NewFileSystem(conf.FileSystem.RootDir)

	var tlsConfig *tls.Config
	if conf.Security.EnableTLS {
		tlsConfig, err = generateTLSConfig(conf.Security)
		if err != nil {
			actualCleanup()
			return err, cleanup
		}
	}

	fsmsMetrics, metricsCleanup := metrics.NewFSMSMetrics()
	previousCleanup := actualCleanup
	actualCleanup = func() {
		metricsCleanup()
		previousCleanup()
	}

	resolver := featurestore.NewResolver(store, fileSystem,
		time.Duration(conf.Internal.ResolverCacheValiditySec)*time.Second)
	registry := connector.NewRegistry(store, fileSystem, online)
	rollbackDelay := time.Duration(conf.Internal.RollbackRetryDelayMS) * time.Millisecond
	opTimeout := time.Duration(conf.Internal.PhysicalOpTimeoutSec) * time.Second
	featuregroups := featuregroup.NewManager(store, offline, online, fileSystem, registry,
		conf.Internal.RollbackRetries, rollbackDelay, opTimeout)
	trainingdatasets := trainingdataset.NewManager(store, fileSystem, registry,
		conf.Internal.RollbackRetries, rollbackDelay, opTimeout)
	apiKeyCache := apikey.NewCache(apikey.NewStaticRegistry(),
		time.Duration(conf.Security.HopsworksAPIKeysCacheValiditySec)*time.Second)

	restServer := rest.New(
		conf.REST.ServerIP,
		conf.REST.ServerPort,
		tlsConfig,
		resolver,
		registry,
		featuregroups,
		trainingdatasets,
		apiKeyCache,
		fsmsMetrics,
	)
	cleanupRest := restServer.Start(quit)
	return nil, func() {
		cleanupRest()
		actualCleanup()
	}
}

func generateTLSConfig(sec config.Security) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(sec.CertificateFile, sec.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed loading server certificate; error: %v", err)
	}
	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}}
	if sec.RequireAndVerifyClientCert {
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		if sec.RootCACertFile != "" {
			rootCAs := x509.NewCertPool()
			rootCA, err := os.ReadFile(sec.RootCACertFile)
			if err != nil {
				return nil, fmt.Errorf("failed reading root CA file; error: %v", err)
			}
			if !rootCAs.AppendCertsFromPEM(rootCA) {
				return nil, fmt.Errorf("failed parsing root CA file %s", sec.RootCACertFile)
			}
			tlsConfig.ClientCAs = rootCAs
		}
	}
	return tlsConfig, nil
}
