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

package schema

import (
	"testing"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/require"

	"hopsworks.ai/fsms/internal/catalog"
	"hopsworks.ai/fsms/internal/fserror"
)

func TestValidateFeatures(t *testing.T) {
	fsErr := ValidateFeatures(nil)
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_OFFLINE_SCHEMA.GetCode(), fsErr.GetCode())

	fsErr = ValidateFeatures([]catalog.Feature{{Name: "--", Type: "int"}})
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_OFFLINE_SCHEMA.GetCode(), fsErr.GetCode())

	fsErr = ValidateFeatures([]catalog.Feature{{Name: "amount", Type: ""}})
	require.NotNil(t, fsErr)

	// duplicates are matched ignoring case
	fsErr = ValidateFeatures([]catalog.Feature{
		{Name: "amount", Type: "double"},
		{Name: "Amount", Type: "int"},
	})
	require.NotNil(t, fsErr)
	require.Contains(t, fsErr.GetMessage(), "duplicated")

	fsErr = ValidateFeatures([]catalog.Feature{
		{Name: "customer_id", Type: "bigint", Primary: true},
		{Name: "amount", Type: "double"},
	})
	require.Nil(t, fsErr)
}

func TestValidIdentifier(t *testing.T) {
	require.True(t, ValidIdentifier("customer_id"))
	require.True(t, ValidIdentifier("F1"))
	require.False(t, ValidIdentifier(""))
	require.False(t, ValidIdentifier("--"))
	require.False(t, ValidIdentifier("a-b"))
	require.False(t, ValidIdentifier("a b"))
}

func TestMapOnlineType(t *testing.T) {
	cases := map[string]string{
		"boolean":       "tinyint(1)",
		"int":           "int",
		"INT":           "int",
		"bigint":        "bigint",
		"float":         "float",
		"double":        "double",
		"string":        "varchar(1000)",
		"varchar(100)":  "varchar(100)",
		"decimal(10,2)": "decimal(10,2)",
		"timestamp":     "timestamp",
		"date":          "date",
		"binary":        "blob",
	}
	for offlineType, expected := range cases {
		mapped, fsErr := MapOnlineType(offlineType)
		require.Nil(t, fsErr, "type %s", offlineType)
		require.Equal(t, expected, mapped)
	}

	_, fsErr := MapOnlineType("array<float>")
	require.NotNil(t, fsErr)
	require.Equal(t, fserror.ILLEGAL_ONLINE_SCHEMA.GetCode(), fsErr.GetCode())

	_, fsErr = MapOnlineType("map<string,int>")
	require.NotNil(t, fsErr)
}

func TestOfflineTableSchema(t *testing.T) {
	features := []catalog.Feature{
		{Name: "customer_id", Type: "bigint", Primary: true},
		{Name: "amount", Type: "double"},
		{Name: "day", Type: "date", Partition: true},
	}
	tableSchema := OfflineTableSchema(features)
	require.Len(t, tableSchema.Columns, 2)
	require.Len(t, tableSchema.PartitionColumns, 1)
	require.Equal(t, "day", tableSchema.PartitionColumns[0].Name)
}

func TestOnlineTableSchema(t *testing.T) {
	features := []catalog.Feature{
		{Name: "customer_id", Type: "bigint", Primary: true},
		{Name: "day", Type: "date", Partition: true},
	}
	tableSchema, fsErr := OnlineTableSchema(features)
	require.Nil(t, fsErr)
	// partition keys are plain columns online
	require.Len(t, tableSchema.Columns, 2)
	require.True(t, tableSchema.Columns[0].Primary)

	// an explicit online type wins over the mapping
	tableSchema, fsErr = OnlineTableSchema([]catalog.Feature{
		{Name: "amount", Type: "string", OnlineType: "varchar(50)"},
	})
	require.Nil(t, fsErr)
	require.Equal(t, "varchar(50)", tableSchema.Columns[0].Type)
}

func TestBuildAvroSchema(t *testing.T) {
	features := []catalog.Feature{
		{Name: "customer_id", Type: "bigint", Primary: true},
		{Name: "amount", Type: "double"},
		{Name: "updated", Type: "timestamp"},
	}
	avroSchema, err := BuildAvroSchema("sales_featurestore", "card_transactions", 1, features)
	require.NoError(t, err)
	require.Contains(t, avroSchema, `"name":"card_transactions_1"`)
	require.Contains(t, avroSchema, `"namespace":"sales_featurestore"`)

	codec, err := goavro.NewCodec(avroSchema)
	require.NoError(t, err)
	require.NotNil(t, codec)
}
