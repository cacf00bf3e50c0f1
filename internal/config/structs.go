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

package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"hopsworks.ai/fsms/internal/log"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendMock   = "mock"
	BackendSQL    = "sql"
)

type REST struct {
	ServerIP   string
	ServerPort uint16
}

type MySQLServer struct {
	IP       string
	Port     uint16
	User     string
	Password string
}

// Catalog is the relational store holding the feature store metadata rows.
type Catalog struct {
	Backend string // "memory" or "mysql"
	MySQL   MySQLServer
	DBName  string
}

func (c Catalog) Validate() error {
	if c.Backend != BackendMemory && c.Backend != BackendMySQL {
		return fmt.Errorf("unsupported catalog backend: %s", c.Backend)
	}
	return nil
}

// OfflineStore is the Hive-compatible table store backing cached
// feature groups and the warehouse paths of training datasets.
type OfflineStore struct {
	Backend      string // "mock" or "sql"
	DriverName   string // database/sql driver speaking the offline dialect
	DSN          string
	WarehouseDir string
}

func (c OfflineStore) Validate() error {
	if c.Backend != BackendMock && c.Backend != BackendSQL {
		return fmt.Errorf("unsupported offline store backend: %s", c.Backend)
	}
	if c.Backend == BackendSQL && (c.DriverName == "" || c.DSN == "") {
		return errors.New("offline store driver/DSN not set")
	}
	return nil
}

// OnlineStore is the low latency relational store serving online
// enabled feature groups.
type OnlineStore struct {
	Backend string // "mock" or "mysql"
	MySQL   MySQLServer
}

func (c OnlineStore) Validate() error {
	if c.Backend != BackendMock && c.Backend != BackendMySQL {
		return fmt.Errorf("unsupported online store backend: %s", c.Backend)
	}
	return nil
}

// FileSystem is the distributed file system holding datasets and
// training dataset directories.
type FileSystem struct {
	Backend string // "mock"
	RootDir string
}

type Security struct {
	EnableTLS                        bool
	RequireAndVerifyClientCert       bool
	CertificateFile                  string
	PrivateKeyFile                   string
	RootCACertFile                   string
	UseHopsworksAPIKeys              bool
	HopsworksAPIKeysCacheValiditySec int
}

func (c Security) Validate() error {
	if c.EnableTLS {
		if c.CertificateFile == "" || c.PrivateKeyFile == "" {
			return errors.New("Server Certificate/Key not set")
		}
	}
	return nil
}

type Internal struct {
	GOMAXPROCS               int
	ResolverCacheValiditySec int
	RollbackRetries          uint
	RollbackRetryDelayMS     int
	PhysicalOpTimeoutSec     int
}

type AllConfigs struct {
	REST         REST
	Internal     Internal
	Catalog      Catalog
	OfflineStore OfflineStore
	OnlineStore  OnlineStore
	FileSystem   FileSystem
	Security     Security
	Log          log.LogConfig
}

func (c AllConfigs) Validate() error {
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.OfflineStore.Validate(); err != nil {
		return err
	}
	if err := c.OnlineStore.Validate(); err != nil {
		return err
	}
	return c.Security.Validate()
}

func (c AllConfigs) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error marshaling configs; error: %v", err)
	}
	return string(b)
}
