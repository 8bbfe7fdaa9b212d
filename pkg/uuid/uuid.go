// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid mints the primary keys of users, credentials, sessions,
// organizations and login attempts. Keys are UUIDv7 so they sort by creation
// time, which keeps the B-tree indexes append-mostly.
package uuid

import "github.com/google/uuid"

// New returns a fresh UUIDv7 in canonical lowercase form. It panics only if
// the system entropy source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}
