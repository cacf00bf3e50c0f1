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

// Package naming enforces the entity name grammar. Feature group and
// training dataset names become offline table names and directory
// names, so they follow the offline identifier rules.
package naming

import (
	"regexp"

	"hopsworks.ai/fsms/internal/fserror"
)

// Offline table names append "_<version>" to the entity name, which
// still has to fit the 256 character identifier limit.
const MaxEntityNameLength = 256

var entityNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func legalEntityName(name string) bool {
	return name != "" && len(name) <= MaxEntityNameLength && entityNameRegex.MatchString(name)
}

func ValidateFeaturegroupName(name string) *fserror.RestErrorCode {
	if !legalEntityName(name) {
		return fserror.ILLEGAL_OFFLINE_TABLE_NAME.NewMessagef(
			"illegal feature group name: %s; the name can only contain alphanumeric characters and underscores and must not exceed %d characters",
			name, MaxEntityNameLength)
	}
	return nil
}

func ValidateTrainingDatasetName(name string) *fserror.RestErrorCode {
	if !legalEntityName(name) {
		return fserror.ILLEGAL_OFFLINE_TABLE_NAME.NewMessagef(
			"illegal training dataset name: %s; the name can only contain alphanumeric characters and underscores and must not exceed %d characters",
			name, MaxEntityNameLength)
	}
	return nil
}

func ValidateConnectorName(name string) *fserror.RestErrorCode {
	if name == "" || len(name) > MaxEntityNameLength {
		return fserror.ILLEGAL_STORAGE_CONNECTOR_NAME.NewMessagef(
			"illegal storage connector name: %s; the name must be non-empty and must not exceed %d characters",
			name, MaxEntityNameLength)
	}
	return nil
}

func ValidateVersion(version int) *fserror.RestErrorCode {
	if version < 1 {
		return fserror.ILLEGAL_OFFLINE_TABLE_NAME.NewMessagef(
			"illegal version: %d; versions start at 1", version)
	}
	return nil
}
