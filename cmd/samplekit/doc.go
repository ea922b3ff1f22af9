// SPDX-License-Identifier: EPL-2.0

// Command samplekit inspects, renders, previews and packages audio samples
// in a local workspace. Configuration comes from the environment and an
// optional .env file in the working directory.
package main
