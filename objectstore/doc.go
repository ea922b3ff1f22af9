// SPDX-License-Identifier: EPL-2.0

// Package objectstore uploads project archives to an S3-compatible bucket.
package objectstore
