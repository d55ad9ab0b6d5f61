// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import "errors"

var (
	// ErrNotFound is returned when no row matches the given key.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when an insert collides with the unique
	// constraint on file_id or message_id.
	ErrDuplicate = errors.New("store: duplicate key")
)
