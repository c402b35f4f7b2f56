// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package marketplace

// Op names a per-template mutation.
type Op string

const (
	OpDownload Op = "download"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

// Policy says how a mutation reconciles the local cache with the backend.
type Policy struct {
	// Optimistic mutations apply locally first and write in the background.
	Optimistic bool
	// Rollback undoes an optimistic local change when the write fails.
	Rollback bool
	// Surface reports write failures to the user; otherwise they are logged.
	Surface bool
}

// policies is the single place that decides consistency per operation.
// Download counts are telemetry and may drift; edits and deletes are user
// visible and only land after the backend confirms.
var policies = map[Op]Policy{
	OpDownload: {Optimistic: true, Rollback: false, Surface: false},
	OpUpdate:   {Optimistic: false, Surface: true},
	OpDelete:   {Optimistic: false, Surface: true},
}

// PolicyFor returns the policy of op. Unknown ops are confirmed and surfaced.
func PolicyFor(op Op) Policy {
	if p, ok := policies[op]; ok {
		return p
	}
	return Policy{Surface: true}
}
