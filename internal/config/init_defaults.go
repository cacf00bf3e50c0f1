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
	"os"
	"sync"

	"hopsworks.ai/fsms/internal/log"
)

var globalConfig AllConfigs
var mutex sync.Mutex

func init() {
	configFile := os.Getenv(CONFIG_FILE_PATH)
	err := SetFromFileIfExists(configFile)
	if err != nil {
		panic(err)
	}
}

func newWithDefaults() AllConfigs {
	return AllConfigs{
		REST: REST{
			ServerIP:   "localhost",
			ServerPort: 8181,
		},
		Internal: Internal{
			GOMAXPROCS:               -1,
			ResolverCacheValiditySec: 60,
			RollbackRetries:          3,
			RollbackRetryDelayMS:     200,
			PhysicalOpTimeoutSec:     120,
		},
		Catalog: Catalog{
			Backend: BackendMemory,
			MySQL: MySQLServer{
				IP:       "localhost",
				Port:     3306,
				User:     "hopsworks",
				Password: "hopsworks",
			},
			DBName: "hopsworks",
		},
		OfflineStore: OfflineStore{
			Backend:      BackendMock,
			DriverName:   "",
			DSN:          "",
			WarehouseDir: "/apps/hive/warehouse",
		},
		OnlineStore: OnlineStore{
			Backend: BackendMock,
			MySQL: MySQLServer{
				IP:       "localhost",
				Port:     3306,
				User:     "onlinefs",
				Password: "onlinefs",
			},
		},
		FileSystem: FileSystem{
			Backend: BackendMock,
			RootDir: "/Projects",
		},
		Security: Security{
			EnableTLS:                        false,
			RequireAndVerifyClientCert:       false,
			CertificateFile:                  "",
			PrivateKeyFile:                   "",
			RootCACertFile:                   "",
			UseHopsworksAPIKeys:              false,
			HopsworksAPIKeysCacheValiditySec: 3,
		},
		Log: log.LogConfig{
			Level:      "warn",
			FilePath:   "",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAge:     30,
		},
	}
}
