// SPDX-License-Identifier: EPL-2.0

// Package library records packaged samples and lets callers watch the list.
//
// Memory keeps items in process; Postgres keeps them in a media_items table
// through pgx. Both replace items by id and push the whole list to every
// observer after each change.
package library
