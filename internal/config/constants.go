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

import "hopsworks.ai/fsms/version"

const API_KEY_NAME = "X-API-KEY"

// path parameters
const PROJECT_PP = "projectID"
const FEATURESTORE_PP = "fsID"
const CONNECTOR_TYPE_PP = "type"
const CONNECTOR_PP = "connectorID"
const FEATUREGROUP_PP = "fgID"
const TRAINING_DATASET_PP = "tdID"

const VERSION_GROUP = "/" + version.API_VERSION

const PING_OPERATION = "ping"

const PROJECT_EP = "project/:" + PROJECT_PP
const FEATURESTORES_EP = PROJECT_EP + "/featurestores"
const FEATURESTORE_EP = FEATURESTORES_EP + "/:" + FEATURESTORE_PP
const STORAGE_CONNECTORS_EP = FEATURESTORE_EP + "/storageconnectors"
const ONLINE_FEATURESTORE_CONNECTOR_EP = STORAGE_CONNECTORS_EP + "/onlinefeaturestore"
const STORAGE_CONNECTOR_TYPE_EP = STORAGE_CONNECTORS_EP + "/:" + CONNECTOR_TYPE_PP
const STORAGE_CONNECTOR_EP = STORAGE_CONNECTOR_TYPE_EP + "/:" + CONNECTOR_PP
const FEATUREGROUPS_EP = FEATURESTORE_EP + "/featuregroups"
const FEATUREGROUP_EP = FEATUREGROUPS_EP + "/:" + FEATUREGROUP_PP
const TRAINING_DATASETS_EP = FEATURESTORE_EP + "/trainingdatasets"
const TRAINING_DATASET_EP = TRAINING_DATASETS_EP + "/:" + TRAINING_DATASET_PP

/*
	Env variables
*/

const CONFIG_FILE_PATH = "FSMS_CONFIG_FILE"
