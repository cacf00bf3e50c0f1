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

// Package apikey validates Hopsworks API keys. A key is
// "<prefix>.<secret>" with a 16 character prefix; the registry holds
// the salted secret hashes. Validated keys are cached for the
// configured validity so the registry is not hit on every request.
package apikey

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key is a registered API key. Secret is stored as
// sha256(client secret + salt) in hex.
type Key struct {
	Prefix     string
	Salt       string
	SecretHash string
	User       string
}

// Registry resolves key prefixes to registered keys.
type Registry interface {
	GetKey(prefix string) (Key, error)
}

type Cache struct {
	registry Registry
	cache    *gocache.Cache
}

func NewCache(registry Registry, validity time.Duration) *Cache {
	return &Cache{
		registry: registry,
		cache:    gocache.New(validity, 2*validity),
	}
}

// ValidateAPIKey checks the key format and the salted secret hash
// against the registry. The User of the key is returned for audit
// logging.
func (c *Cache) ValidateAPIKey(apiKey string) (string, error) {
	prefix, secret, err := splitAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	cacheKey := fmt.Sprintf("%x", sha256.Sum256([]byte(apiKey)))
	if user, ok := c.cache.Get(cacheKey); ok {
		return user.(string), nil
	}

	key, err := c.registry.GetKey(prefix)
	if err != nil {
		return "", errors.New("unauthorized: unknown API key")
	}
	//sha256(client.secret + key.salt) = key.secret
	secretHash := fmt.Sprintf("%x", sha256.Sum256([]byte(secret+key.Salt)))
	if secretHash != key.SecretHash {
		return "", errors.New("wrong API Key")
	}
	c.cache.Set(cacheKey, key.User, gocache.DefaultExpiration)
	return key.User, nil
}

func splitAPIKey(apiKey string) (prefix string, secret string, err error) {
	splits := strings.Split(apiKey, ".")
	if len(splits) != 2 || len(splits[0]) != 16 || len(splits[1]) < 1 {
		return "", "", errors.New("the apikey has an incorrect format")
	}
	return splits[0], splits[1], nil
}
