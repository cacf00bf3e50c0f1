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

package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
)

// StaticRegistry is an in-process Registry, used when key management
// is not delegated to an external Hopsworks instance.
type StaticRegistry struct {
	mu   sync.RWMutex
	keys map[string]Key
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{keys: make(map[string]Key)}
}

// AddKey registers a key from its plaintext secret, salting and
// hashing it the way Hopsworks stores API keys.
func (r *StaticRegistry) AddKey(prefix string, secret string, user string) error {
	if len(prefix) != 16 {
		return errors.New("the apikey prefix must be 16 characters")
	}
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return err
	}
	salt := fmt.Sprintf("%x", saltBytes)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[prefix] = Key{
		Prefix:     prefix,
		Salt:       salt,
		SecretHash: fmt.Sprintf("%x", sha256.Sum256([]byte(secret+salt))),
		User:       user,
	}
	return nil
}

func (r *StaticRegistry) GetKey(prefix string) (Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[prefix]
	if !ok {
		return Key{}, errors.New("unknown API key prefix")
	}
	return key, nil
}
