// SPDX-License-Identifier: EPL-2.0

// Package importer runs the import flow: copy the picked file into the
// workspace, probe it, package it as a project, record it in the library
// and optionally publish the archive.
package importer
